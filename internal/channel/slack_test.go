package channel

import (
	"testing"

	"github.com/slack-go/slack"

	"nekobot/internal/domain"
)

func TestSortByTS_NumericOrder(t *testing.T) {
	msgs := []domain.TriggerMessage{
		{TS: "10.2"},
		{TS: "9.5"},
		{TS: "100.0"},
		{TS: "9.5"},
	}
	sortByTS(msgs)

	want := []string{"9.5", "9.5", "10.2", "100.0"}
	for i, ts := range want {
		if msgs[i].TS != ts {
			t.Fatalf("msgs[%d].TS = %q, want %q", i, msgs[i].TS, ts)
		}
	}
}

func TestFromSlackMessages(t *testing.T) {
	in := []slack.Message{{
		Msg: slack.Msg{
			Type:            "message",
			SubType:         "file_share",
			Text:            "look",
			User:            "U1",
			Timestamp:       "5.0",
			ThreadTimestamp: "4.0",
			Files: []slack.File{{
				Filetype:   "png",
				Mimetype:   "image/png",
				URLPrivate: "https://files.slack.com/x",
			}},
		},
	}}

	out := fromSlackMessages(in, "C1")
	if len(out) != 1 {
		t.Fatalf("len = %d", len(out))
	}
	got := out[0]
	if got.Channel != "C1" {
		t.Fatalf("channel = %q", got.Channel)
	}
	if got.Type != "message" || got.SubType != "file_share" || got.Text != "look" {
		t.Fatalf("message fields = %+v", got)
	}
	if got.TS != "5.0" || got.ThreadTS != "4.0" {
		t.Fatalf("timestamps = %q %q", got.TS, got.ThreadTS)
	}
	if len(got.Files) != 1 || got.Files[0].Mimetype != "image/png" {
		t.Fatalf("files = %+v", got.Files)
	}
}

func TestFromSlackFiles_EmptyStaysNil(t *testing.T) {
	if got := fromSlackFiles(nil); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
	if got := fromSlackFiles([]slack.File{}); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
}
