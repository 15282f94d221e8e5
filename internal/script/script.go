// Package script reads batches and editing scripts from YAML files and runs
// them through the balancer without a server.
package script

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"gopkg.in/yaml.v3"
)

var ErrUnknownOp = errors.New("unknown step")

// Batch is a finished set of lines to be checked by the commit gate.
type Batch struct {
	Date     string              `yaml:"date"`
	Currency string              `yaml:"currency"`
	Lines    []models.LedgerLine `yaml:"lines"`
}

// ParseBatch decodes a batch. Lines without a currency take the batch's.
func ParseBatch(data []byte) (Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("parse batch: %w", err)
	}
	code, err := amount.ParseCurrency(b.Currency)
	if err != nil {
		return Batch{}, err
	}
	b.Currency = code
	for i := range b.Lines {
		if b.Lines[i].Currency == "" {
			b.Lines[i].Currency = code
		}
	}
	return b, nil
}

func LoadBatch(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, fmt.Errorf("read batch: %w", err)
	}
	return ParseBatch(data)
}

// Check runs the commit gate over the batch.
func Check(b *balancer.Balancer, batch Batch) balancer.Verdict {
	return b.Check(batch.Lines, batch.Currency)
}

// Step is one editing event. Op is one of focus, amount, blur, description,
// account, accept, edit or remove.
type Step struct {
	Op    string             `yaml:"op"`
	Side  string             `yaml:"side,omitempty"`
	Value string             `yaml:"value,omitempty"` // amount text, description or account ref
	Index int                `yaml:"index,omitempty"`
	Line  *models.LedgerLine `yaml:"line,omitempty"` // replacement for edit
}

// Script is an editing session recorded as a list of events.
type Script struct {
	Date     string `yaml:"date"`
	Currency string `yaml:"currency"`
	Policy   string `yaml:"policy,omitempty"`
	Steps    []Step `yaml:"steps"`
}

func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	return s, nil
}

func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// StepResult records what a step did to the session.
type StepResult struct {
	Step    int    `yaml:"step"`
	Op      string `yaml:"op"`
	State   string `yaml:"state"`
	Outcome string `yaml:"outcome,omitempty"` // blur only
	Emitted int    `yaml:"emitted,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

type Result struct {
	Steps   []StepResult           `yaml:"steps"`
	Lines   []models.LedgerLine    `yaml:"lines"`
	Totals  balancer.DisplayTotals `yaml:"totals"`
	Verdict balancer.Verdict       `yaml:"-"`
}

// Replay runs every step against a fresh session. A rejected step is
// recorded and replay continues; only a malformed step stops it.
func Replay(opts balancer.Options, s Script, loc amount.Locale) (Result, error) {
	if s.Policy != "" {
		policy, err := balancer.ParseTriggerPolicy(s.Policy)
		if err != nil {
			return Result{}, err
		}
		opts.Policy = policy
	}
	code, err := amount.ParseCurrency(s.Currency)
	if err != nil {
		return Result{}, err
	}
	date := time.Now().UTC()
	if s.Date != "" {
		if date, err = time.Parse(time.DateOnly, s.Date); err != nil {
			return Result{}, fmt.Errorf("script date: %w", err)
		}
	}

	session := balancer.New(opts).NewSession("replay", date, code)

	var res Result
	for i, step := range s.Steps {
		sr, err := apply(session, step, loc)
		if err != nil {
			return Result{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		sr.Step = i + 1
		sr.Op = step.Op
		sr.State = session.Draft().State.String()
		res.Steps = append(res.Steps, sr)
	}

	res.Lines = session.Lines()
	res.Totals = session.Totals().Display()
	res.Verdict = session.Check()
	return res, nil
}

// apply runs one step. Balancer rejections go into the result; the error is
// reserved for steps that cannot be understood.
func apply(s *balancer.Session, step Step, loc amount.Locale) (StepResult, error) {
	var sr StepResult
	side, sideErr := models.ParseSide(step.Side)

	needsSide := map[string]bool{"focus": true, "amount": true, "blur": true, "account": true}
	op := strings.ToLower(strings.TrimSpace(step.Op))
	if needsSide[op] && sideErr != nil {
		return sr, sideErr
	}

	var err error
	switch op {
	case "focus":
		err = s.Focus(side)
	case "amount":
		value, perr := amount.Parse(step.Value, loc)
		if perr != nil {
			return sr, perr
		}
		err = s.ChangeAmount(side, value)
	case "blur":
		var br balancer.BlurResult
		br, err = s.Blur(side)
		sr.Outcome = br.Outcome.String()
		sr.Emitted = len(br.Emitted)
	case "description":
		s.SetDescription(step.Value)
	case "account":
		err = s.SetAccount(side, step.Value)
	case "accept":
		_, err = s.AcceptDraft()
		if err == nil {
			sr.Emitted = 1
		}
	case "edit":
		if step.Line == nil {
			return sr, errors.New("edit step needs a line")
		}
		_, err = s.EditLine(step.Index, *step.Line)
	case "remove":
		err = s.RemoveLine(step.Index)
	default:
		return sr, fmt.Errorf("%w %q", ErrUnknownOp, step.Op)
	}

	if err != nil {
		sr.Error = err.Error()
	}
	return sr, nil
}
