// Package aiflows holds the AI-assisted features: reminder generation,
// supplier-offer analysis and Telegram message handling. Each flow renders
// a prompt from the embedded catalog and makes one LLM call.
package aiflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/llm"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"go.uber.org/zap"
)

// Flow names, also used as metric labels.
const (
	FlowReminders     = "reminders"
	FlowOfferAnalysis = "offer_analysis"
	FlowMessage       = "telegram_message"
)

// MaxReminders caps how many reminders one generation may produce.
const MaxReminders = 8

// ErrBadResponse is returned when the model's answer cannot be parsed.
var ErrBadResponse = errors.New("aiflows: unparseable model response")

// Flows runs the AI flows against a Generator.
type Flows struct {
	gen     llm.Generator
	prompts map[string]Prompt
	log     *zap.Logger
	metrics *appmetrics.Metrics
	now     func() time.Time
}

// New parses the embedded prompt catalog.
func New(gen llm.Generator, log *zap.Logger, metrics *appmetrics.Metrics) (*Flows, error) {
	prompts, err := parsePrompts(promptsYAML)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{FlowReminders, FlowOfferAnalysis, FlowMessage} {
		if _, ok := prompts[name]; !ok {
			return nil, fmt.Errorf("aiflows: prompt %q missing from catalog", name)
		}
	}
	return &Flows{gen: gen, prompts: prompts, log: log, metrics: metrics, now: time.Now}, nil
}

// Enabled reports whether a real provider is configured.
func (f *Flows) Enabled() bool {
	_, off := f.gen.(llm.Disabled)
	return !off
}

func (f *Flows) run(ctx context.Context, flow string, data map[string]string, files []llm.File) (string, error) {
	p := f.prompts[flow]
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.LLM(), f.log, "llm."+flow)
	defer cancel()

	start := time.Now()
	out, err := f.gen.Generate(ctx, llm.Request{
		System: strings.TrimSpace(p.System),
		Prompt: p.Render(data),
		Files:  files,
		JSON:   p.JSON,
	})
	outcome := appmetrics.OutcomeOK
	if err != nil {
		outcome = appmetrics.OutcomeError
		if !errors.Is(err, llm.ErrDisabled) {
			f.log.Error("llm call failed", zap.String("flow", flow), zap.Error(err))
		}
	}
	f.metrics.LLM(flow, outcome, start)
	return out, err
}

/* -------------------------------------------------------------------------- */
/* Reminders                                                                   */
/* -------------------------------------------------------------------------- */

// ReminderDraft is a reminder proposed by the model, not yet stored.
type ReminderDraft struct {
	Title   string
	Body    string
	DueDate *time.Time
}

type stageBrief struct {
	Title    string `yaml:"title"`
	Status   string `yaml:"status"`
	Deadline string `yaml:"deadline,omitempty"`
	Overdue  bool   `yaml:"overdue,omitempty"`
}

type interventionBrief struct {
	Name   string       `yaml:"name"`
	Budget float64      `yaml:"budget"`
	Stages []stageBrief `yaml:"stages"`
}

type projectBrief struct {
	Title         string              `yaml:"title"`
	Status        string              `yaml:"status"`
	Progress      int                 `yaml:"progress_percent"`
	Deadline      string              `yaml:"deadline,omitempty"`
	Budget        float64             `yaml:"budget"`
	Interventions []interventionBrief `yaml:"interventions"`
}

func briefProject(p models.Project, now time.Time) projectBrief {
	view := projectmetrics.AtRequestTime(p, now)
	b := projectBrief{
		Title:    view.Title,
		Status:   view.Status,
		Progress: view.Progress,
		Budget:   view.Budget,
		Deadline: dateString(view.Deadline),
	}
	for _, iv := range view.Interventions {
		ib := interventionBrief{Name: iv.DisplayName(), Budget: iv.TotalCost}
		for _, st := range iv.Stages {
			overdue := st.Deadline != nil && st.Deadline.Before(now) &&
				st.Status != models.StageCompleted && st.Status != models.StageFailed
			ib.Stages = append(ib.Stages, stageBrief{
				Title:    st.Title,
				Status:   st.Status,
				Deadline: dateString(st.Deadline),
				Overdue:  overdue,
			})
		}
		b.Interventions = append(b.Interventions, ib)
	}
	return b
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// GenerateReminders asks the model for follow-up reminders for p.
func (f *Flows) GenerateReminders(ctx context.Context, p models.Project) ([]ReminderDraft, error) {
	now := f.now()
	out, err := f.run(ctx, FlowReminders, map[string]string{
		"today":   now.Format("2006-01-02"),
		"max":     fmt.Sprint(MaxReminders),
		"project": toYAML(briefProject(p, now)),
	}, nil)
	if err != nil {
		return nil, err
	}
	drafts, err := parseReminders(out)
	if err != nil {
		f.log.Warn("reminder response not parseable", zap.String("project_id", p.ID.Hex()), zap.Error(err))
		return nil, err
	}
	return drafts, nil
}

func parseReminders(raw string) ([]ReminderDraft, error) {
	var items []struct {
		Title   string `json:"title"`
		Body    string `json:"body"`
		DueDate string `json:"due_date"`
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	drafts := make([]ReminderDraft, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		if len(title) > 200 {
			title = title[:200]
		}
		d := ReminderDraft{Title: title, Body: strings.TrimSpace(it.Body)}
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(it.DueDate)); err == nil {
			d.DueDate = &t
		}
		drafts = append(drafts, d)
		if len(drafts) == MaxReminders {
			break
		}
	}
	return drafts, nil
}

/* -------------------------------------------------------------------------- */
/* Offer analysis                                                              */
/* -------------------------------------------------------------------------- */

// OfferInput is what the offer-analysis flow sees.
type OfferInput struct {
	Title    string
	Supplier string
	Amount   float64
	Notes    string
	File     *llm.File
}

// AnalyzeOffer returns a plain-text analysis of a supplier quotation.
func (f *Flows) AnalyzeOffer(ctx context.Context, in OfferInput) (string, error) {
	var files []llm.File
	if in.File != nil {
		files = append(files, *in.File)
	}
	return f.run(ctx, FlowOfferAnalysis, map[string]string{
		"title":    in.Title,
		"supplier": in.Supplier,
		"amount":   fmt.Sprintf("%.2f", in.Amount),
		"notes":    in.Notes,
	}, files)
}

/* -------------------------------------------------------------------------- */
/* Telegram messages                                                           */
/* -------------------------------------------------------------------------- */

// MessageInput is an incoming chat message with optional attachment.
type MessageInput struct {
	Text     string
	File     *llm.File
	FileName string
	Projects []models.Project
}

type projectLine struct {
	Title    string `yaml:"title"`
	Status   string `yaml:"status"`
	Progress int    `yaml:"progress_percent"`
	Alerts   int    `yaml:"overdue_stages,omitempty"`
}

// ProcessMessage answers a staff message.
func (f *Flows) ProcessMessage(ctx context.Context, in MessageInput) (string, error) {
	now := f.now()
	lines := make([]projectLine, 0, len(in.Projects))
	for _, p := range in.Projects {
		v := projectmetrics.AtRequestTime(p, now)
		lines = append(lines, projectLine{Title: v.Title, Status: v.Status, Progress: v.Progress, Alerts: v.Alerts})
	}
	data := map[string]string{"text": in.Text}
	if len(lines) > 0 {
		data["projects"] = toYAML(lines)
	}
	var files []llm.File
	if in.File != nil {
		files = append(files, *in.File)
		data["attachment"] = in.FileName
		if data["attachment"] == "" {
			data["attachment"] = in.File.MIMEType
		}
	}
	if strings.TrimSpace(in.Text) == "" {
		data["text"] = "(no text)"
	}
	return f.run(ctx, FlowMessage, data, files)
}
