// Package printbackend implements the Print Backend Port (spec §4.2)
// against a real IPP print server, using github.com/OpenPrinting/goipp
// for wire encoding — the same library the teacher toolkit builds its IPP
// support on.
package printbackend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPrinting/goipp"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/ipp"
)

// Backend talks IPP to a single CUPS-fronted print server.
type Backend struct {
	HTTP *http.Client
}

// New returns a Backend with sane HTTP defaults (10s, per spec §5).
func New() *Backend {
	return &Backend{HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func nextRequestID() int32 {
	return rand.Int31()
}

// Submit submits the document read from file for printing on the printer reachable at ippURL,
// with title and options, and returns the backend-issued job id.
func (b *Backend) Submit(ctx context.Context, ippURL, title string,
	file io.Reader, options ipp.PrintOptions) (jobID int, err error) {

	msg := goipp.NewRequest(goipp.DefaultVersion, goipp.OpPrintJob, nextRequestID())
	msg.Operation.Add(goipp.MakeAttribute("attributes-charset",
		goipp.TagCharset, goipp.String("utf-8")))
	msg.Operation.Add(goipp.MakeAttribute("attributes-natural-language",
		goipp.TagLanguage, goipp.String("en")))
	msg.Operation.Add(goipp.MakeAttribute("printer-uri",
		goipp.TagURI, goipp.String(ippURL)))
	msg.Operation.Add(goipp.MakeAttribute("requesting-user-name",
		goipp.TagName, goipp.String("printhub")))
	msg.Operation.Add(goipp.MakeAttribute("job-name",
		goipp.TagName, goipp.String(title)))

	for name, value := range options.ToCupsOptionDict() {
		msg.Job.Add(goipp.MakeAttribute(name, goipp.TagKeyword, goipp.String(value)))
	}

	encoded, err := msg.EncodeBytes()
	if err != nil {
		return 0, apperr.New(apperr.BackendError, err)
	}

	body := bytes.NewBuffer(encoded)
	if _, err := io.Copy(body, file); err != nil {
		return 0, apperr.New(apperr.IOError, err)
	}

	resp, err := b.post(ctx, ippURL, body)
	if err != nil {
		return 0, err
	}

	var respMsg goipp.Message
	if err := respMsg.DecodeBytes(resp); err != nil {
		return 0, apperr.New(apperr.BackendError, err)
	}

	if status := goipp.Status(respMsg.Code); !status.Success() {
		if status == goipp.StatusErrorBusy {
			return 0, apperr.New(apperr.BackendBusy, fmt.Errorf("ipp status %s", status))
		}
		if status == goipp.StatusErrorNotFound {
			return 0, apperr.New(apperr.InvalidArgument, fmt.Errorf("no such printer"))
		}
		return 0, apperr.New(apperr.BackendError, fmt.Errorf("ipp status %s", status))
	}

	jobID = intAttr(respMsg.Job, "job-id")
	if jobID == 0 {
		return 0, apperr.New(apperr.BackendError, fmt.Errorf("missing job-id in response"))
	}
	return jobID, nil
}

// JobAttributes fetches and normalizes the current state of jobID.
func (b *Backend) JobAttributes(ctx context.Context, ippURL string, jobID int) (ipp.JobAttributes, error) {
	msg := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetJobAttributes, nextRequestID())
	msg.Operation.Add(goipp.MakeAttribute("attributes-charset",
		goipp.TagCharset, goipp.String("utf-8")))
	msg.Operation.Add(goipp.MakeAttribute("attributes-natural-language",
		goipp.TagLanguage, goipp.String("en")))
	msg.Operation.Add(goipp.MakeAttribute("printer-uri",
		goipp.TagURI, goipp.String(ippURL)))
	msg.Operation.Add(goipp.MakeAttribute("job-id",
		goipp.TagInteger, goipp.Integer(jobID)))

	encoded, err := msg.EncodeBytes()
	if err != nil {
		return ipp.JobAttributes{}, apperr.New(apperr.BackendError, err)
	}

	resp, err := b.post(ctx, ippURL, bytes.NewReader(encoded))
	if err != nil {
		return ipp.JobAttributes{}, err
	}

	var respMsg goipp.Message
	if err := respMsg.DecodeBytes(resp); err != nil {
		return ipp.JobAttributes{}, apperr.New(apperr.BackendError, err)
	}

	return ipp.JobAttributes{
		JobState:            ipp.DecodeJobState(intAttr(respMsg.Job, "job-state")),
		JobStateReasons:     stringsAttr(respMsg.Job, "job-state-reasons"),
		JobStateMessage:     stringAttr(respMsg.Job, "job-state-message"),
		PrinterStateReasons: ipp.ParseStateReasons(stringsAttr(respMsg.Job, "printer-state-reasons")),
		PrinterStateMessage: stringAttr(respMsg.Job, "printer-state-message"),
	}, nil
}

// Cancel cancels jobID. Idempotent: a terminal-state job, or one the
// server has already forgotten, is treated as success.
func (b *Backend) Cancel(ctx context.Context, ippURL string, jobID int) error {
	msg := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCancelJob, nextRequestID())
	msg.Operation.Add(goipp.MakeAttribute("attributes-charset",
		goipp.TagCharset, goipp.String("utf-8")))
	msg.Operation.Add(goipp.MakeAttribute("attributes-natural-language",
		goipp.TagLanguage, goipp.String("en")))
	msg.Operation.Add(goipp.MakeAttribute("printer-uri",
		goipp.TagURI, goipp.String(ippURL)))
	msg.Operation.Add(goipp.MakeAttribute("job-id",
		goipp.TagInteger, goipp.Integer(jobID)))

	encoded, err := msg.EncodeBytes()
	if err != nil {
		return apperr.New(apperr.BackendError, err)
	}

	resp, err := b.post(ctx, ippURL, bytes.NewReader(encoded))
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil
		}
		return err
	}

	var respMsg goipp.Message
	if err := respMsg.DecodeBytes(resp); err != nil {
		return apperr.New(apperr.BackendError, err)
	}

	status := goipp.Status(respMsg.Code)
	if status.Success() || status == goipp.StatusErrorNotPossible || status == goipp.StatusErrorNotFound {
		return nil
	}
	return apperr.New(apperr.BackendError, fmt.Errorf("ipp status %s", status))
}

// ProbeReachable issues a lightweight HEAD against ippURL and reports
// liveness. A 405 Method Not Allowed counts as alive (the device answered,
// it just doesn't like HEAD).
func (b *Backend) ProbeReachable(ctx context.Context, ippURL string) bool {
	u, err := toHTTPURL(ippURL)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false
	}

	resp, err := b.HTTP.Do(req)
	if err != nil {
		return false // transport-failure
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode < 500
}

var trayLevelRe = regexp.MustCompile(`(?i)level["':=\s]+(\d+).{0,80}?max(?:capacity)?["':=\s]+(\d+)`)

// PaperPct scrapes the printer's embedded HTTP status page for the
// primary cassette's tray level/maxcapacity pair and computes a
// percentage. Returns (0, false) if the page can't be parsed — this part
// has no IPP attribute equivalent across vendors, hence the scrape (spec
// §4.2).
func (b *Backend) PaperPct(ctx context.Context, statusPageURL string) (int, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusPageURL, nil)
	if err != nil {
		return 0, false
	}

	resp, err := b.HTTP.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, false
	}

	m := trayLevelRe.FindSubmatch(data)
	if m == nil {
		return 0, false
	}

	level, err1 := strconv.Atoi(string(m[1]))
	max, err2 := strconv.Atoi(string(m[2]))
	if err1 != nil || err2 != nil || max == 0 {
		return 0, false
	}

	pct := level * 100 / max
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

func (b *Backend) post(ctx context.Context, ippURL string, body io.Reader) ([]byte, error) {
	u, err := toHTTPURL(ippURL)
	if err != nil {
		return nil, apperr.New(apperr.InvalidArgument, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, apperr.New(apperr.BackendError, err)
	}
	req.Header.Set("Content-Type", "application/ipp")

	resp, err := b.HTTP.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.BackendError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.NotFound, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.BackendError, "ipp http status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// toHTTPURL rewrites an "ipp://" URL into the "http://" URL goipp talks
// HTTP-POST IPP over.
func toHTTPURL(ippURL string) (string, error) {
	u, err := url.Parse(ippURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ipp":
		u.Scheme = "http"
	case "ipps":
		u.Scheme = "https"
	}
	return u.String(), nil
}

func intAttr(attrs goipp.Attributes, name string) int {
	for _, a := range attrs {
		if a.Name == name && len(a.Values) > 0 {
			if v, ok := a.Values[0].V.(goipp.Integer); ok {
				return int(v)
			}
		}
	}
	return 0
}

func stringAttr(attrs goipp.Attributes, name string) string {
	for _, a := range attrs {
		if a.Name == name && len(a.Values) > 0 {
			return fmt.Sprint(a.Values[0].V)
		}
	}
	return ""
}

func stringsAttr(attrs goipp.Attributes, name string) []string {
	var out []string
	for _, a := range attrs {
		if a.Name == name {
			for _, v := range a.Values {
				out = append(out, strings.TrimSpace(fmt.Sprint(v.V)))
			}
		}
	}
	return out
}
