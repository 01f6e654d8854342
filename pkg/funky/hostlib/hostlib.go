// Package hostlib is the standard set of host functions a funky embedding
// registers for call_cpp: running another script, reading a text file and
// reading a clock.
package hostlib

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/evaluator"
	"github.com/sambeau/funky/pkg/funky/script"
)

// MaxRunDepth bounds scripts started by run from inside other scripts.
const MaxRunDepth = 64

// Lib holds the state shared by the host functions of one embedding.
type Lib struct {
	start time.Time
	now   func() time.Time
	depth int
}

// New creates a library whose clock starts now.
func New() *Lib {
	return &Lib{start: time.Now(), now: time.Now}
}

// Register adds run, read_txt and seconds_now to reg.
func (l *Lib) Register(reg evaluator.Registry) {
	reg.Register("run", l.run)
	reg.Register("read_txt", l.readText)
	reg.Register("seconds_now", l.secondsNow)
}

// Register adds a fresh library to reg.
func Register(reg evaluator.Registry) *Lib {
	l := New()
	l.Register(reg)
	return l
}

func arg(name string, args *evaluator.List, i int, kind evaluator.Kind) (*evaluator.Data, error) {
	if args.Len() <= i {
		return nil, errors.NewArity(name, i+1, args.Len())
	}
	d, _ := args.At(int64(i))
	if d.Kind() != kind {
		return nil, errors.NewExpected(kind.String())
	}
	return d, nil
}

func outArg(name string, args *evaluator.List, i int, kind evaluator.Kind) (*evaluator.Data, error) {
	d, err := arg(name, args, i, kind)
	if err != nil {
		return nil, err
	}
	if d.IsConst() {
		return nil, errors.New("CONST-0001", nil)
	}
	return d, nil
}

// run(path) loads and runs another script in the same runtime. Its
// diagnostics are reported as it runs.
func (l *Lib) run(rt *evaluator.Runtime, args *evaluator.List) error {
	p, err := arg("run", args, 0, evaluator.KindString)
	if err != nil {
		return err
	}
	if l.depth >= MaxRunDepth {
		return fmt.Errorf("nested run depth exceeded (%d levels)", MaxRunDepth)
	}

	l.depth++
	defer func() { l.depth-- }()

	err = script.RunFile(filepath.Join(rt.WorkingDir, p.Str()), script.Options{
		Runtime: rt,
		Dir:     rt.WorkingDir,
	})
	if stderrors.Is(err, script.ErrRuntime) {
		return nil
	}
	return err
}

// read_txt(path, out) reads a file relative to the working directory into
// the string variable out.
func (l *Lib) readText(rt *evaluator.Runtime, args *evaluator.List) error {
	p, err := arg("read_txt", args, 0, evaluator.KindString)
	if err != nil {
		return err
	}
	out, err := outArg("read_txt", args, 1, evaluator.KindString)
	if err != nil {
		return err
	}

	data, rerr := os.ReadFile(filepath.Join(rt.WorkingDir, p.Str()))
	if rerr != nil {
		return fmt.Errorf("failed to open file '%s'", p.Str())
	}
	out.SetString(string(data))
	return nil
}

// seconds_now(out) stores the seconds elapsed since the library started in
// the float variable out.
func (l *Lib) secondsNow(rt *evaluator.Runtime, args *evaluator.List) error {
	out, err := outArg("seconds_now", args, 0, evaluator.KindFloat)
	if err != nil {
		return err
	}
	out.SetFloat(l.now().Sub(l.start).Seconds())
	return nil
}
