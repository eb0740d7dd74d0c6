// Package console is the interactive front end: it prompts for weight and
// activity, runs one calculation and prints the outcome.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nekihlep/water-norm/domain"
)

const (
	title          = "Water norm calculator"
	promptWeight   = "Enter weight (kg): "
	promptActivity = "Enter activity (minutes): "
	msgInterrupted = "\nProgram interrupted"
)

// Whole weights above this are left as floats and rejected by the calculator.
const maxExactFloatInt = 1 << 53

var errInterrupted = errors.New("interrupted")

type Calculator interface {
	Calculate(ctx context.Context, weight, activityMinutes domain.Number) (domain.WaterNormResult, error)
}

// Run performs one interactive calculation. Success, calculator errors, bad
// input and interruption (ctx cancelled or input closed) are all reported on
// out and return nil; only a failing reader is returned as an error.
func Run(ctx context.Context, in io.Reader, out io.Writer, calc Calculator) error {
	lines := newLineReader(in)

	fmt.Fprintln(out, title)

	weight, activity, err := readInput(ctx, lines, out)
	switch {
	case errors.Is(err, errInterrupted):
		fmt.Fprintln(out, msgInterrupted)
		return nil
	case errors.Is(err, domain.ErrInvalidInput):
		fmt.Fprintf(out, "error: %v\n", err)
		return nil
	case err != nil:
		return err
	}

	result, err := calc.Calculate(ctx, weight, activity)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			fmt.Fprintln(out, msgInterrupted)
			return nil
		}
		fmt.Fprintf(out, "error: %v\n", err)
		return nil
	}

	fmt.Fprintf(out, "\nYour daily water norm: %s ml\n", FormatMilliliters(result.Milliliters))
	fmt.Fprintf(out, "   That is about %.1f liters\n", result.Liters())
	return nil
}

func readInput(ctx context.Context, lines *lineReader, out io.Writer) (domain.Number, domain.Number, error) {
	fmt.Fprint(out, promptWeight)
	raw, err := lines.next(ctx)
	if err != nil {
		return domain.Number{}, domain.Number{}, err
	}
	weight, err := ParseWeight(raw)
	if err != nil {
		return domain.Number{}, domain.Number{}, err
	}

	fmt.Fprint(out, promptActivity)
	raw, err = lines.next(ctx)
	if err != nil {
		return domain.Number{}, domain.Number{}, err
	}
	activity, err := ParseActivity(raw)
	if err != nil {
		return domain.Number{}, domain.Number{}, err
	}

	return weight, activity, nil
}

// ParseWeight reads the weight as a float. Whole values become integers;
// fractional ones stay floats and fail the calculator's integer check.
func ParseWeight(raw string) (domain.Number, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return domain.Number{}, domain.ErrInvalidInput
	}
	if f == math.Trunc(f) && math.Abs(f) <= maxExactFloatInt {
		return domain.Int(int(f)), nil
	}
	return domain.Float(f), nil
}

func ParseActivity(raw string) (domain.Number, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return domain.Number{}, domain.ErrInvalidInput
	}
	return domain.Int(v), nil
}

// FormatMilliliters prints whole values with a trailing ".0" (2600.0) and
// keeps up to two decimals otherwise (2108.33).
func FormatMilliliters(ml float64) string {
	s := strconv.FormatFloat(ml, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

type lineResult struct {
	line string
	err  error
}

// lineReader reads lines in the background so a blocked read can be
// abandoned when ctx is cancelled.
type lineReader struct {
	scanner *bufio.Scanner
	pending chan lineResult
}

func newLineReader(in io.Reader) *lineReader {
	return &lineReader{scanner: bufio.NewScanner(in)}
}

func (r *lineReader) next(ctx context.Context) (string, error) {
	if r.pending == nil {
		r.pending = make(chan lineResult, 1)
		go func(ch chan<- lineResult) {
			if r.scanner.Scan() {
				ch <- lineResult{line: r.scanner.Text()}
				return
			}
			err := r.scanner.Err()
			if err == nil {
				err = io.EOF
			}
			ch <- lineResult{err: err}
		}(r.pending)
	}

	select {
	case <-ctx.Done():
		return "", errInterrupted
	case res := <-r.pending:
		r.pending = nil
		if errors.Is(res.err, io.EOF) {
			return "", errInterrupted
		}
		return res.line, res.err
	}
}
