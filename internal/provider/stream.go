package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"nekobot/internal/domain"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

type chunkBody struct {
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Delta *chunkDelta `json:"delta"`
}

type chunkDelta struct {
	Content string `json:"content"`
}

func (b *chunkBody) content() string {
	for _, c := range b.Choices {
		if c.Delta != nil {
			return c.Delta.Content
		}
	}
	return ""
}

// Assembler reassembles incremental text from a streamed chat-completions
// response. The transport may split frames at arbitrary byte offsets,
// including inside a multi-byte character; incomplete frames are carried
// over until enough bytes arrive.
type Assembler struct {
	text         strings.Builder
	pending      string // frame split mid-JSON, waiting for its tail
	pendingBytes []byte // frame split mid-codepoint, not yet decodable
	done         bool
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed consumes one chunk of the byte stream and returns the text fragments
// completed by it, in order. After the end marker has been seen, Feed
// returns nothing.
func (a *Assembler) Feed(chunk []byte) []string {
	var frags []string
	for _, raw := range bytes.Split(chunk, []byte{'\n'}) {
		if a.done {
			break
		}

		var line string
		if len(a.pendingBytes) > 0 || !utf8.Valid(raw) {
			a.pendingBytes = append(a.pendingBytes, raw...)
			if !utf8.Valid(a.pendingBytes) {
				continue // still mid-codepoint
			}
			line = string(a.pendingBytes)
			a.pendingBytes = nil
		} else {
			line = string(raw)
		}

		if frag := a.consumeLine(line); frag != "" {
			frags = append(frags, frag)
		}
	}
	return frags
}

// consumeLine folds one decodable line into the frame state and returns the
// extracted text fragment, if the line completed a frame.
func (a *Assembler) consumeLine(line string) string {
	if strings.HasPrefix(line, dataPrefix) {
		a.pending = line // start of a new, possibly incomplete frame
	} else {
		a.pending += line // continuation of a previously buffered frame
	}

	payload, ok := strings.CutPrefix(a.pending, dataPrefix)
	if !ok {
		return "" // noise before any frame start; wait
	}
	if payload == doneMarker {
		a.done = true
		a.pending = ""
		return ""
	}

	var body chunkBody
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return "" // frame not complete yet, wait for more bytes
	}
	a.pending = ""

	frag := body.content()
	a.text.WriteString(frag)
	return frag
}

// Done reports whether the explicit end-of-stream marker has been seen.
func (a *Assembler) Done() bool {
	return a.done
}

// Text returns the full accumulated response text.
func (a *Assembler) Text() string {
	return a.text.String()
}

// StreamToMessage drives one streamed response end to end: it reads the
// body, feeds the assembler, pushes accumulated text through the throttled
// updater, and finalizes the message when the stream ends. Read failures
// surface as ErrTransport without issuing a final edit, so text already
// posted stays intact.
func StreamToMessage(ctx context.Context, body io.Reader, asm *Assembler, up *Updater) error {
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			asm.Feed(buf[:n])
			if pushErr := up.Push(ctx, asm.Text()); pushErr != nil {
				return pushErr
			}
		}
		if err == io.EOF || asm.Done() {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
	}
	return up.Finalize(ctx, asm.Text())
}
