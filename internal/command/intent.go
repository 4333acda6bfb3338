package command

// Intent is the closed set of outcomes of free-text classification.
type Intent interface {
	isIntent()
}

type AddTask struct {
	Description string
	DueDate     string // optional, 2006-01-02
	DueTime     string // optional, 15:04
}

type CompleteTask struct {
	Description string
}

type ListTasks struct{}

type DeadlineCheck struct{}

type RegisterContact struct {
	Address string
}

type Unrecognized struct{}

func (AddTask) isIntent()         {}
func (CompleteTask) isIntent()    {}
func (ListTasks) isIntent()       {}
func (DeadlineCheck) isIntent()   {}
func (RegisterContact) isIntent() {}
func (Unrecognized) isIntent()    {}
