package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{
			name: "add with date and time",
			text: "追加 洗濯物を取り込む 2025-08-30 21:00",
			want: AddTask{Description: "洗濯物を取り込む", DueDate: "2025-08-30", DueTime: "21:00"},
		},
		{
			name: "add alias",
			text: "登録 ジムに行く 2025-08-31 08:00",
			want: AddTask{Description: "ジムに行く", DueDate: "2025-08-31", DueTime: "08:00"},
		},
		{
			name: "add with date only",
			text: "追加 レポート提出 2025-09-05",
			want: AddTask{Description: "レポート提出", DueDate: "2025-09-05"},
		},
		{
			name: "add without deadline",
			text: "追加 買い物",
			want: AddTask{Description: "買い物"},
		},
		{
			name: "add pads single digit hour",
			text: "追加 朝ラン 2025-08-31 9:00",
			want: AddTask{Description: "朝ラン", DueDate: "2025-08-31", DueTime: "09:00"},
		},
		{
			name: "add multiword description keeps spaces",
			text: "追加 部屋の 掃除 2025-09-01 10:30",
			want: AddTask{Description: "部屋の 掃除", DueDate: "2025-09-01", DueTime: "10:30"},
		},
		{
			name: "add with time but no date keeps it as description",
			text: "追加 会議 21:00",
			want: AddTask{Description: "会議 21:00"},
		},
		{
			name: "add with empty argument",
			text: "追加",
			want: AddTask{},
		},
		{
			name: "complete",
			text: "完了 筋トレ",
			want: CompleteTask{Description: "筋トレ"},
		},
		{
			name: "complete without argument",
			text: "完了",
			want: CompleteTask{},
		},
		{
			name: "list",
			text: "進捗確認",
			want: ListTasks{},
		},
		{
			name: "deadline check",
			text: "締切確認",
			want: DeadlineCheck{},
		},
		{
			name: "register contact",
			text: "通知登録 taro@example.com",
			want: RegisterContact{Address: "taro@example.com"},
		},
		{
			name: "leading and trailing whitespace",
			text: "  完了 筋トレ  ",
			want: CompleteTask{Description: "筋トレ"},
		},
		{
			name: "list with trailing words is not a list",
			text: "進捗確認 おねがい",
			want: Unrecognized{},
		},
		{
			name: "keyword must be a prefix",
			text: "今日こそ完了 筋トレ",
			want: Unrecognized{},
		},
		{
			name: "free chatter",
			text: "おはよう",
			want: Unrecognized{},
		},
		{
			name: "empty message",
			text: "",
			want: Unrecognized{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}
