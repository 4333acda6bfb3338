package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tray3forse/tasknag/internal/contact"
	"github.com/tray3forse/tasknag/internal/eventbus"
	"github.com/tray3forse/tasknag/internal/reminder"
	"github.com/tray3forse/tasknag/internal/task"
)

// maxReplyChars bounds each reply message body; long task lists are split
// into several messages.
const maxReplyChars = 500

const helpText = `📌 使い方:
・追加 タスク内容 [YYYY-MM-DD HH:MM]
・完了 タスク名
・進捗確認
・締切確認
・通知登録 連絡先`

// Event is one inbound chat message, already authenticated and verified
// by the transport.
type Event struct {
	OwnerID    string
	Text       string
	ReplyToken string
}

// Replier answers a single inbound event on its reply channel.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages []reminder.Message) error
}

// Handler executes classified chat commands against the task store and
// replies to the sender. One event is processed to completion at a time.
type Handler struct {
	repo      task.Repository
	contacts  contact.Repository
	evaluator *reminder.Evaluator
	replier   Replier
	bus       *eventbus.Bus
	clock     func() time.Time
}

func NewHandler(repo task.Repository, contacts contact.Repository, evaluator *reminder.Evaluator, replier Replier, bus *eventbus.Bus) *Handler {
	return &Handler{
		repo:      repo,
		contacts:  contacts,
		evaluator: evaluator,
		replier:   replier,
		bus:       bus,
		clock:     time.Now,
	}
}

// WithClock overrides the handler's time source.
func (h *Handler) WithClock(clock func() time.Time) *Handler {
	h.clock = clock
	return h
}

// HandleEvent classifies and executes one chat event. Every failure is
// resolved into a reply; errors returned here are reply-channel failures
// only.
func (h *Handler) HandleEvent(ctx context.Context, ev Event) error {
	var msgs []reminder.Message
	switch intent := Parse(ev.Text).(type) {
	case AddTask:
		msgs = h.addTask(ctx, ev.OwnerID, intent)
	case CompleteTask:
		msgs = h.completeTask(ctx, ev.OwnerID, intent)
	case ListTasks:
		msgs = h.listTasks(ctx, ev.OwnerID)
	case DeadlineCheck:
		msgs = h.deadlineCheck(ctx, ev.OwnerID)
	case RegisterContact:
		msgs = h.registerContact(ctx, ev.OwnerID, intent)
	case Unrecognized:
		msgs = []reminder.Message{reminder.Text(helpText)}
	}
	if len(msgs) == 0 {
		return nil
	}
	return h.replier.Reply(ctx, ev.ReplyToken, msgs)
}

func (h *Handler) addTask(ctx context.Context, ownerID string, intent AddTask) []reminder.Message {
	if strings.TrimSpace(intent.Description) == "" {
		return textReply("⚠️ タスク内容を指定してください。")
	}
	if err := task.ValidateDescription(intent.Description); err != nil {
		return textReply(fmt.Sprintf("⚠️ タスク内容は%d文字以内で入力してください。", task.MaxDescriptionLength))
	}
	if err := task.ValidateDue(intent.DueDate, intent.DueTime); err != nil {
		return textReply("⚠️ 締切は「YYYY-MM-DD HH:MM」の形式で指定してください。")
	}

	now := h.clock()
	t := &task.Task{
		ID:          ulid.Make().String(),
		OwnerID:     ownerID,
		Description: intent.Description,
		DueDate:     intent.DueDate,
		DueTime:     intent.DueTime,
		Status:      task.StatusPending,
		Notified:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.Create(ctx, t); err != nil {
		slog.ErrorContext(ctx, "failed to create task", "owner_id", ownerID, "error", err)
		return apologyReply()
	}
	if h.bus != nil {
		h.bus.PublishNew(eventbus.EventTaskCreated, t.ID, t.OwnerID, nil)
	}
	return textReply(fmt.Sprintf("🆕 タスク「%s」を登録しました！（ID: %s）", t.Description, t.ID))
}

func (h *Handler) completeTask(ctx context.Context, ownerID string, intent CompleteTask) []reminder.Message {
	if intent.Description == "" {
		return textReply("⚠️ 完了するタスク名を指定してください（例: 完了 筋トレ）")
	}
	affected, err := h.repo.Complete(ctx, ownerID, intent.Description)
	if err != nil {
		slog.ErrorContext(ctx, "failed to complete task", "owner_id", ownerID, "error", err)
		return apologyReply()
	}
	if affected == 0 {
		return textReply(fmt.Sprintf("❓ タスク「%s」は見つかりませんでした。", intent.Description))
	}
	if h.bus != nil {
		h.bus.PublishNew(eventbus.EventTaskCompleted, "", ownerID, map[string]string{"description": intent.Description})
	}
	return textReply(fmt.Sprintf("✅ タスク「%s」を完了にしました。", intent.Description))
}

func (h *Handler) listTasks(ctx context.Context, ownerID string) []reminder.Message {
	tasks, err := h.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tasks", "owner_id", ownerID, "error", err)
		return apologyReply()
	}
	if len(tasks) == 0 {
		return textReply("📭 タスクは登録されていません。")
	}

	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, fmt.Sprintf("🔹 %s（%s） - %s", t.Description, dueLabel(t), statusLabel(t.Status)))
	}
	msgs := make([]reminder.Message, 0, 1)
	for _, chunk := range chunkLines(lines, maxReplyChars) {
		msgs = append(msgs, reminder.Text(chunk))
	}
	return msgs
}

// deadlineCheck runs the evaluator over the caller's pending tasks right
// now. It shares the sweep's idempotence path, so a bombardment triggered
// here suppresses the sweep's and vice versa.
func (h *Handler) deadlineCheck(ctx context.Context, ownerID string) []reminder.Message {
	tasks, err := h.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tasks for deadline check", "owner_id", ownerID, "error", err)
		return apologyReply()
	}

	now := h.clock()
	var overdue, near, pending int
	for _, t := range tasks {
		if t.Status == task.StatusDone {
			continue
		}
		pending++
		switch h.evaluator.Classify(t, now) {
		case reminder.TierOverdue:
			overdue++
		case reminder.TierNear:
			near++
		}
		h.evaluator.EvaluateAndDispatch(ctx, t, now)
	}
	if pending == 0 {
		return textReply("🎉 未完了のタスクはありません。")
	}
	return textReply(fmt.Sprintf("📊 未完了 %d件 ／ ⏳ 締切間近 %d件 ／ 💣 期限切れ %d件", pending, near, overdue))
}

func (h *Handler) registerContact(ctx context.Context, ownerID string, intent RegisterContact) []reminder.Message {
	if intent.Address == "" {
		return textReply("⚠️ 登録する連絡先を指定してください。")
	}
	c := &contact.Contact{
		OwnerID: ownerID,
		Address: intent.Address,
		Notify:  true,
	}
	if err := h.contacts.Upsert(ctx, c); err != nil {
		slog.ErrorContext(ctx, "failed to register contact", "owner_id", ownerID, "error", err)
		return apologyReply()
	}
	return textReply(fmt.Sprintf("🔔 通知先を登録しました：%s", intent.Address))
}

func dueLabel(t *task.Task) string {
	if !t.Dated() {
		if t.DueDate != "" {
			return t.DueDate
		}
		return "未定"
	}
	return t.DueDate + " " + t.DueTime
}

func statusLabel(s task.Status) string {
	if s == task.StatusDone {
		return "完了"
	}
	return "未完了"
}

func textReply(body string) []reminder.Message {
	return []reminder.Message{reminder.Text(body)}
}

func apologyReply() []reminder.Message {
	return textReply("⚠️ サーバーエラーが発生しました。時間をおいて再度お試しください。")
}

// chunkLines joins lines into newline-separated chunks of at most max
// characters each.
func chunkLines(lines []string, max int) []string {
	var chunks []string
	var buf strings.Builder
	for _, line := range lines {
		if buf.Len() > 0 && buf.Len()+1+len(line) > max {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
