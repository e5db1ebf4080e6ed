package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"ollamahub/internal/models"
)

const chunkSize = 4096

// Accumulator is the running assistant message of one exchange.
type Accumulator struct {
	sb        strings.Builder
	fragments int
}

// Add appends a fragment after sentinel normalization.
func (a *Accumulator) Add(f Fragment) {
	a.sb.WriteString(Normalize(f.Text))
	a.fragments++
}

func (a *Accumulator) String() string {
	return a.sb.String()
}

func (a *Accumulator) Fragments() int {
	return a.fragments
}

// Stats describes a finished read.
type Stats struct {
	Fragments int
	Malformed int
	Bytes     int64
}

// UpdateFunc receives the accumulated message after every fragment.
type UpdateFunc func(accumulated string)

// Options configures Read.
type Options struct {
	OnUpdate    UpdateFunc
	OnMalformed MalformedFunc
}

// Read consumes r chunk by chunk until EOF and returns the accumulated
// message. Malformed lines are skipped. Any other read error ends the
// stream and is returned with the text gathered so far.
func Read(ctx context.Context, r io.Reader, mode models.Mode, opts Options) (string, Stats, error) {
	dec := NewDecoder(mode)
	dec.OnMalformed(opts.OnMalformed)

	var (
		acc   Accumulator
		stats Stats
		buf   = make([]byte, chunkSize)
	)
	emit := func(frags []Fragment) {
		for _, f := range frags {
			acc.Add(f)
			if opts.OnUpdate != nil {
				opts.OnUpdate(acc.String())
			}
		}
	}
	finish := func(err error) (string, Stats, error) {
		stats.Fragments = acc.Fragments()
		stats.Malformed = dec.Malformed()
		return acc.String(), stats, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		n, err := r.Read(buf)
		if n > 0 {
			stats.Bytes += int64(n)
			emit(dec.Write(buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			emit(dec.Flush())
			return finish(nil)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return finish(ctxErr)
			}
			return finish(fmt.Errorf("read stream: %w", err))
		}
	}
}

// DecodeBody extracts the content of a non-streamed response, which is a
// single JSON object. A missing content field yields an empty message.
func DecodeBody(body []byte, mode models.Mode) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("decode response: invalid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return "", fmt.Errorf("decode response: %w", errNotObject)
	}
	v := doc.Get(contentPath(mode))
	if v.Type != gjson.String {
		return "", nil
	}
	return NormalizeText(v.Str), nil
}

// NormalizeText puts every sentinel marker in a whole message on its own
// line, matching what the streaming path produces for marker fragments.
func NormalizeText(text string) string {
	if !strings.Contains(text, ThinkOpen) && !strings.Contains(text, ThinkClose) {
		return text
	}
	r := strings.NewReplacer(
		ThinkOpen, Normalize(ThinkOpen),
		ThinkClose, Normalize(ThinkClose),
	)
	return r.Replace(text)
}
