package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Slack wraps user mentions as "<@U123ABC> "; the pattern matches the whole
// run of mention tokens at the start of a message.
var mentionPattern = regexp.MustCompile(`^<.+> `)

// Leading "pastN" directive asking the bot to read N past messages.
var pastPattern = regexp.MustCompile(`^past(\d+)`)

// TriggerMessage is one inbound Slack message event. It is immutable once
// received and owned by a single response cycle.
type TriggerMessage struct {
	Type        string       `json:"type"`
	SubType     string       `json:"subtype,omitempty"`
	Text        string       `json:"text"`
	User        string       `json:"user"`
	Channel     string       `json:"channel,omitempty"`
	ChannelType string       `json:"channel_type,omitempty"`
	TS          string       `json:"ts"`
	ThreadTS    string       `json:"thread_ts,omitempty"`
	Files       []SharedFile `json:"files,omitempty"`
}

// SharedFile is a file attached to a Slack message.
type SharedFile struct {
	Filetype   string `json:"filetype"`
	Mimetype   string `json:"mimetype"`
	URLPrivate string `json:"url_private"`
}

// IsMentionTo reports whether the text contains the given user id.
func (m TriggerMessage) IsMentionTo(userID string) bool {
	return strings.Contains(m.Text, userID)
}

// IsMentionToOther reports whether the message mentions someone other than
// the bot.
func (m TriggerMessage) IsMentionToOther(botID string) bool {
	return !m.IsMentionTo(botID) && strings.Contains(m.Text, "<@")
}

func (m TriggerMessage) IsInThread() bool {
	return m.ThreadTS != ""
}

func (m TriggerMessage) IsDirectMessage() bool {
	return m.ChannelType == "im"
}

func (m TriggerMessage) IsFrom(userID string) bool {
	return m.User == userID
}

// ReplyRequired reports whether the bot owes a response to this message.
// Only plain messages and file shares qualify, and never the bot's own.
func (m TriggerMessage) ReplyRequired(botID string) bool {
	if m.Type != "message" {
		return false
	}
	if m.SubType != "" && m.SubType != "file_share" {
		return false
	}
	return !m.IsFrom(botID)
}

// PureText returns the message body with the leading mention run and a
// leading "pastN" directive stripped, in that order.
func (m TriggerMessage) PureText() string {
	text := mentionPattern.ReplaceAllString(m.Text, "")
	text = strings.TrimSpace(text)
	return pastPattern.ReplaceAllString(text, "")
}

// PastLimit returns how many messages to fetch as context. A leading "pastN"
// directive overrides def; the value is clamped to [0, maxPast] and then
// incremented by one for the trigger message itself.
func (m TriggerMessage) PastLimit(def, maxPast int) int {
	n := def
	if match := pastPattern.FindStringSubmatch(m.Text); match != nil {
		if v, err := strconv.Atoi(match[1]); err == nil {
			n = v
		}
	}
	if n > maxPast {
		n = maxPast
	}
	if n < 0 {
		n = 0
	}
	return n + 1
}

// ReplyThreadTS returns the thread_ts a reply to this message should carry:
// the existing thread, none for an unthreaded DM, or the message's own ts to
// start a new thread.
func (m TriggerMessage) ReplyThreadTS() string {
	switch {
	case m.IsInThread():
		return m.ThreadTS
	case m.IsDirectMessage():
		return ""
	default:
		return m.TS
	}
}
