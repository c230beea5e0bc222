package workflow

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/edward-yakop/go-tidemodel/internal/misc"
)

// Pane is the output region of one step. Concealed values never reach it.
type Pane struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (p *Pane) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.Reset()
}

func (p *Pane) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.buf.WriteString(misc.Concealed(string(b))); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Println appends one line.
func (p *Pane) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.WriteString(misc.Concealed(strings.TrimRight(line, "\n")))
	p.buf.WriteByte('\n')
}

func (p *Pane) Printf(format string, v ...interface{}) {
	p.Println(fmt.Sprintf(format, v...))
}

func (p *Pane) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

// Lines without the trailing newline.
func (p *Pane) Lines() []string {
	s := strings.TrimRight(p.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
