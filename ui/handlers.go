package ui

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"koafrail/app"
	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
)

// formState carries what the form template needs to render itself: the
// schema in display order, the raw values as the clinician typed them, and
// any per-field messages.
type formState struct {
	Features []clinical.Feature
	Values   map[string]string
	Errors   map[string]string
}

// assessPage is the view model behind index.html
type assessPage struct {
	Form    formState
	Summary clinical.ValidationErrors
	Result  *resultView
}

// resultView is one prediction prepared for display
type resultView struct {
	Percent        string
	Probability    float64
	RawScore       float64
	Baseline       float64
	Clamped        bool
	Tier           risk.Tier
	TierClass      string
	Headline       string
	Recommendation template.HTML
	ForcePlot      template.HTML
	BarChart       template.HTML
	Attributions   []risk.Attribution
	ModelVersion   string
	ModelHash      string
}

// termRow pairs a model term with its display label for the model page
type termRow struct {
	Term  risk.Term
	Label string
}

// historyRow is one audit record prepared for the history table
type historyRow struct {
	When      string
	Source    string
	Percent   string
	Tier      risk.Tier
	TierClass string
	ModelHash string
}

// handleIndex renders the assessment form with schema defaults
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "index.html", assessPage{Form: defaultForm()})
}

// handleAssess validates the submitted form, scores the patient, and renders
// the outcome. Validation failures re-render the form with field messages and
// never produce a prediction. HTMX requests get just the result panel.
func (a *App) handleAssess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form data", http.StatusBadRequest)
		return
	}

	features := clinical.Features()
	values := make(map[string]string, len(features))
	vector := make(clinical.Vector, len(features))
	var fieldErrs clinical.ValidationErrors
	for _, f := range features {
		raw := r.PostFormValue(f.Key)
		values[f.Key] = raw
		val, err := clinical.ParseValue(f.Key, raw)
		switch {
		case errors.Is(err, core.ErrMissingFeature):
			fieldErrs = append(fieldErrs, clinical.FieldError{Key: f.Key, Label: f.Label, Message: "is required"})
		case err != nil:
			fieldErrs = append(fieldErrs, clinical.FieldError{Key: f.Key, Label: f.Label, Message: "must be a number"})
		default:
			vector[f.Key] = val
		}
	}

	page := assessPage{Form: formState{Features: features, Values: values, Errors: errorsByKey(fieldErrs)}}
	if len(fieldErrs) == 0 {
		result, err := a.assess.Assess(r.Context(), app.AssessRequest{Vector: vector, Source: core.SourceUI})
		var verrs clinical.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			fieldErrs = verrs
			page.Form.Errors = errorsByKey(verrs)
		case err != nil:
			log.Printf("[UI] assessment failed: %v", err)
			http.Error(w, "Assessment failed", http.StatusInternalServerError)
			return
		default:
			page.Result = a.resultView(result)
		}
	}
	page.Summary = fieldErrs

	if isHTMX(r) {
		a.renderPartial(w, "result-panel", page)
		return
	}
	a.renderTemplate(w, "index.html", page)
}

// handleModel renders the model card: artifact identity plus the term table
func (a *App) handleModel(w http.ResponseWriter, r *http.Request) {
	card := a.assess.Model()
	rows := make([]termRow, 0, len(card.Terms))
	for _, t := range card.Terms {
		label := t.Key
		if f, ok := clinical.ByKey(t.Key); ok {
			label = f.Label
		}
		rows = append(rows, termRow{Term: t, Label: label})
	}
	a.renderTemplate(w, "model.html", map[string]interface{}{
		"Version":  card.Version,
		"Hash":     card.Hash.String(),
		"Baseline": card.Baseline,
		"Floor":    card.Floor,
		"Ceiling":  card.Ceiling,
		"Terms":    rows,
	})
}

// handleHistory renders recent audit records, or the disabled notice when no
// store is configured.
func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	records, err := a.assess.History(r.Context(), limit)
	if err != nil {
		log.Printf("[UI] history query failed: %v", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	counts, err := a.assess.TierCounts(r.Context())
	if err != nil {
		log.Printf("[UI] tier counts failed: %v", err)
		counts = map[risk.Tier]int{}
	}

	rows := make([]historyRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, historyRow{
			When:      rec.CreatedAt.Time().Format("2006-01-02 15:04:05"),
			Source:    string(rec.Source),
			Percent:   strconv.FormatFloat(rec.Probability*100, 'f', 1, 64),
			Tier:      rec.Tier,
			TierClass: "tier-" + string(rec.Tier),
			ModelHash: rec.ModelHash.Short(),
		})
	}
	a.renderTemplate(w, "history.html", map[string]interface{}{
		"Auditing": a.assess.Auditing(),
		"Rows":     rows,
		"High":     counts[risk.TierHigh],
		"Medium":   counts[risk.TierMedium],
		"Low":      counts[risk.TierLow],
	})
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// defaultForm returns the form state with every feature at its schema default
func defaultForm() formState {
	features := clinical.Features()
	values := make(map[string]string, len(features))
	for _, f := range features {
		values[f.Key] = f.FormatValue(f.Default)
	}
	return formState{Features: features, Values: values, Errors: map[string]string{}}
}

// errorsByKey indexes field errors for inline display, keeping the first
// message per field.
func errorsByKey(errs clinical.ValidationErrors) map[string]string {
	byKey := make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, ok := byKey[fe.Key]; !ok {
			byKey[fe.Key] = fe.Message
		}
	}
	return byKey
}

// resultView prepares a scored assessment for the result panel
func (a *App) resultView(result *app.AssessResult) *resultView {
	pred := result.Prediction
	return &resultView{
		Percent:        strconv.FormatFloat(pred.Probability*100, 'f', 1, 64),
		Probability:    pred.Probability,
		RawScore:       pred.RawScore,
		Baseline:       pred.Baseline,
		Clamped:        pred.Clamped,
		Tier:           result.Tier,
		TierClass:      "tier-" + string(result.Tier),
		Headline:       result.Recommendation.Headline,
		Recommendation: renderMarkdown(result.Recommendation.Markdown),
		ForcePlot:      template.HTML(a.force.Render(pred)),
		BarChart:       template.HTML(a.bars.Render(pred)),
		Attributions:   pred.Attributions,
		ModelVersion:   pred.ModelVersion,
		ModelHash:      pred.ModelHash.Short(),
	}
}
