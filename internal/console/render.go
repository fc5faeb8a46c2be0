package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/lukaszraczylo/idptest/internal/debugflow"
)

// Translation keys of the rendered text.
const (
	keyStatusHeader       = "console:develop.pages.idpTest.statusHeader"
	keyConnectionCreation = "console:develop.pages.idpTest.connectionCreation"
	keyAuthentication     = "console:develop.pages.idpTest.authentication"
	keyClaimsMapping      = "console:develop.pages.idpTest.claimsMapping"
	keyBackButton         = "console:develop.pages.idpTest.backButton"
	keyPopupBlocked       = "console:develop.pages.idpTest.popupBlocked"
	keyResultTitle        = "console:develop.pages.idpTestResult.title"
	keyResultDescription  = "console:develop.pages.idpTestResult.description"
	keyNoSession          = "console:develop.pages.idpTestResult.noSession"
	keyNoResult           = "console:develop.pages.idpTestResult.noResult"
	keyRetry              = "console:develop.pages.idpTestResult.retry"
	keyRefresh            = "console:develop.pages.idpTestResult.refresh"
	keyTabGeneralInfo     = "console:develop.pages.idpTestResult.tabs.generalInfo"
	keyTabClaimsMapping   = "console:develop.pages.idpTestResult.tabs.claimsMapping"
	keyTabLogs            = "console:develop.pages.idpTestResult.tabs.logs"
	keyIncomingClaims     = "console:develop.pages.idpTestResult.incomingClaims"
	keyMappedClaims       = "console:develop.pages.idpTestResult.mappedClaims"
	keyUserAttributes     = "console:develop.pages.idpTestResult.userAttributes"
)

// Renderer writes views to a terminal.
type Renderer struct {
	out     io.Writer
	t       debugflow.Translator
	colored bool
}

// NewRenderer creates a renderer. Colors follow color.NoColor, which is set
// when out is not a terminal.
func NewRenderer(out io.Writer, t debugflow.Translator) *Renderer {
	return &Renderer{out: out, t: translatorOrDefault(t), colored: !color.NoColor}
}

// WithColor forces colors on or off.
func (r *Renderer) WithColor(enabled bool) *Renderer {
	r.colored = enabled
	return r
}

// StatusIcon returns the icon of a step status.
func (r *Renderer) StatusIcon(s debugflow.StepStatus) string {
	var icon string
	var attr color.Attribute
	switch s {
	case debugflow.StatusPending:
		icon, attr = "…", color.FgBlue
	case debugflow.StatusSuccess:
		icon, attr = "✔", color.FgGreen
	case debugflow.StatusError:
		icon, attr = "✖", color.FgRed
	default:
		icon, attr = "◷", color.FgHiBlack
	}
	if !r.colored {
		return icon
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(icon)
}

// Statuses writes the "Test Status" list.
func (r *Renderer) Statuses(s debugflow.Statuses) {
	fmt.Fprintf(r.out, "%s\n", r.bold(r.t.T(keyStatusHeader, "Test Status")))
	fmt.Fprintf(r.out, "  %s %s\n", r.StatusIcon(s.Connection), r.t.T(keyConnectionCreation, "Connection Creation"))
	fmt.Fprintf(r.out, "  %s %s\n", r.StatusIcon(s.Authentication), r.t.T(keyAuthentication, "Authentication"))
	fmt.Fprintf(r.out, "  %s %s\n", r.StatusIcon(s.ClaimsMapping), r.t.T(keyClaimsMapping, "Claims Mapping"))
}

// TestView writes the header of the test view.
func (r *Renderer) TestView(v *TestView) {
	fmt.Fprintf(r.out, "%s\n%s\n\n", r.bold(v.Title()), v.Description())
	r.Statuses(v.Statuses())
	fmt.Fprintf(r.out, "\n%s: %s\n", r.t.T(keyBackButton, "Go back to Connection"), v.BackPath())
}

// Run writes what happened to a run.
func (r *Renderer) Run(run *debugflow.Run) {
	switch {
	case run.Err != nil:
		fmt.Fprintf(r.out, "%s\n", r.red(run.Err.Error()))
		return
	case run.PopupErr != nil:
		fmt.Fprintf(r.out, "%s\n", r.red(r.t.T(keyPopupBlocked, "The authentication window could not be opened. Results open after the timeout.")))
	}
	if run.AuthorizationURL != "" {
		fmt.Fprintf(r.out, "Authorization URL: %s\n", run.AuthorizationURL)
	}
	if run.SessionID != "" {
		fmt.Fprintf(r.out, "Session: %s\n", run.SessionID)
	}
}

// ResultView writes the results view.
func (r *Renderer) ResultView(v *ResultView, d Display) {
	fmt.Fprintf(r.out, "%s\n%s\n\n",
		r.bold(r.t.T(keyResultTitle, "Test Results")),
		r.t.T(keyResultDescription, "Results for the connection test session."))
	r.Statuses(d.State.Statuses)
	fmt.Fprintln(r.out)

	switch d.Kind {
	case DisplayLoading:
		fmt.Fprintln(r.out, "Loading…")
	case DisplayError:
		fmt.Fprintf(r.out, "%s\n[%s]\n", r.red(d.Message), r.t.T(keyRetry, "Retry"))
	case DisplayNoSession:
		fmt.Fprintln(r.out, r.t.T(keyNoSession, "No debug session found. This page is usually opened after running the connection test."))
	case DisplayEmpty:
		fmt.Fprintf(r.out, "%s\n[%s]\n", r.t.T(keyNoResult, "No results available."), r.t.T(keyRefresh, "Refresh"))
	case DisplayResult:
		r.resultTabs(d)
	}
	fmt.Fprintf(r.out, "\n%s: %s\n", r.t.T(keyBackButton, "Go back to Connection"), v.BackPath())
}

func (r *Renderer) resultTabs(d Display) {
	result := d.State.Result

	r.section(r.t.T(keyTabGeneralInfo, "General Info"))
	r.table(result.GeneralInfo())

	r.section(r.t.T(keyTabClaimsMapping, "Claims Mapping"))
	fmt.Fprintln(r.out, r.t.T(keyIncomingClaims, "Incoming Claims"))
	r.table(result.IncomingClaims)
	fmt.Fprintln(r.out, r.t.T(keyMappedClaims, "Mapped Claims"))
	r.table(result.MappedClaims)
	fmt.Fprintln(r.out, r.t.T(keyUserAttributes, "User Attributes"))
	r.table(result.UserAttributes)

	r.section(r.t.T(keyTabLogs, "Logs"))
	fmt.Fprintln(r.out, prettyJSON(result.Raw, result))
}

func (r *Renderer) section(title string) {
	fmt.Fprintf(r.out, "\n%s\n", r.bold("── "+title+" ──"))
}

// table writes a two column key/value table, sorted by key.
func (r *Renderer) table(values map[string]any) {
	if len(values) == 0 {
		fmt.Fprintln(r.out, "  (none)")
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, k := range keys {
		table.Append([]string{k, formatValue(values[k])})
	}
	table.Render()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case *string:
		if val == nil {
			return "null"
		}
		return *val
	case fmt.Stringer:
		return val.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// prettyJSON indents the raw response body, falling back to v when there is none.
func prettyJSON(raw json.RawMessage, v any) string {
	if len(raw) > 0 {
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err == nil {
			return out.String()
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(data)
}

func (r *Renderer) bold(s string) string {
	if !r.colored {
		return s
	}
	c := color.New(color.Bold)
	c.EnableColor()
	return c.Sprint(s)
}

func (r *Renderer) red(s string) string {
	if !r.colored {
		return s
	}
	c := color.New(color.FgRed)
	c.EnableColor()
	return c.Sprint(s)
}
