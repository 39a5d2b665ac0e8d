package info

import (
	"encoding/json"
	"expvar" // automatically publish `/debug/vars` on HTTP port
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/DataDog/datadog-profiling-agent/config"
)

var (
	infoMu         sync.RWMutex
	policyInfo     PolicyInfo
	captureStats   CaptureStats
	lastValidation ValidationInfo
	start          = time.Now()
	once           sync.Once
	infoTmpl       *template.Template
	notRunningTmpl *template.Template
	errorTmpl      *template.Template
)

const (
	infoTmplSrc = `{{.Banner}}
{{.Program}}
{{.Banner}}

  Pid: {{.Status.Pid}}
  Uptime: {{.Status.Uptime}} seconds
  Mem alloc: {{.Status.MemStats.Alloc}} bytes

  Policy: {{.Status.Policy.Name}}{{if .Status.Policy.Expired}} (expired){{end}}
  Output: {{.Status.Config.OutputDir}}
  Threshold: {{percent .Status.Policy.Tunables.Threshold}} %
  Capture duration: {{.Status.Policy.Tunables.CaptureDuration}}
  Cooldown: {{.Status.Policy.Tunables.Cooldown}}
  Polling interval: {{.Status.Policy.Tunables.PollingInterval}}{{if not .Status.Policy.Tunables.Enabled}}

  WARNING: Captures disabled by settings{{else if not .Status.Policy.Tunables.PolicyEnabled}}

  WARNING: Policy disabled by settings{{end}}

  --- Captures ---

    Captures: {{.Status.Captures.Captures}}{{if .Status.Captures.Active}} (capturing now){{end}}
    Observations: {{.Status.Captures.Observations}}{{if gt .Status.Captures.EarlyObservations 0}} ({{.Status.Captures.EarlyObservations}} started before the capture){{end}}
    Handed off: {{.Status.Captures.Handoffs}}{{if gt .Status.Captures.CapturesRefused 0}}

    WARNING: Captures refused by budget: {{.Status.Captures.CapturesRefused}}{{end}}{{if gt .Status.Captures.CaptureErrors 0}}
    WARNING: Capture errors: {{.Status.Captures.CaptureErrors}}{{end}}{{if gt .Status.Captures.ValidationFailures 0}}
    WARNING: Validation failures: {{.Status.Captures.ValidationFailures}}{{end}}
{{with .Status.Validation}}{{if .TracePath}}
  --- Last validation ---

    Trace: {{.TracePath}}
    Samples: {{.Samples}}/{{.Candidates}}
    Valid: {{.Valid}}{{if .Error}}
    Error: {{.Error}}{{end}}
{{end}}{{end}}
`
	notRunningTmplSrc = `{{.Banner}}
{{.Program}}
{{.Banner}}

  Not running (port {{.StatusPort}})

`
	errorTmplSrc = `{{.Banner}}
{{.Program}}
{{.Banner}}

  Error: {{.Error}}
  URL: {{.URL}}

`
)

// UpdatePolicyInfo updates the description of the running policy
func UpdatePolicyInfo(pi PolicyInfo) {
	infoMu.Lock()
	defer infoMu.Unlock()
	policyInfo = pi
}

func publishPolicyInfo() interface{} {
	infoMu.RLock()
	defer infoMu.RUnlock()
	return policyInfo
}

// UpdateCaptureStats updates the capture counters
func UpdateCaptureStats(cs CaptureStats) {
	infoMu.Lock()
	defer infoMu.Unlock()
	captureStats = cs
}

func publishCaptureStats() interface{} {
	infoMu.RLock()
	defer infoMu.RUnlock()
	return captureStats
}

// UpdateValidationInfo records the outcome of the last validation
func UpdateValidationInfo(vi ValidationInfo) {
	infoMu.Lock()
	defer infoMu.Unlock()
	lastValidation = vi
}

func publishValidationInfo() interface{} {
	infoMu.RLock()
	defer infoMu.RUnlock()
	return lastValidation
}

func publishUptime() interface{} {
	return int(time.Since(start) / time.Second)
}

type infoString string

func (s infoString) String() string { return string(s) }

// InitInfo initializes the info structure. It should be called only once.
func InitInfo(conf *config.AgentConfig) error {
	var err error

	funcMap := template.FuncMap{
		"percent": func(v float64) string {
			return fmt.Sprintf("%02.1f", v*100)
		},
	}

	once.Do(func() {
		expvar.NewInt("pid").Set(int64(os.Getpid()))
		expvar.Publish("uptime", expvar.Func(publishUptime))
		expvar.Publish("version", expvar.Func(publishVersion))
		expvar.Publish("policy", expvar.Func(publishPolicyInfo))
		expvar.Publish("captures", expvar.Func(publishCaptureStats))
		expvar.Publish("validation", expvar.Func(publishValidationInfo))

		c := *conf
		c.SettingsAPIKey = "" // should not be exported by JSON, but just to make sure
		var buf []byte
		buf, err = json.Marshal(&c)
		if err != nil {
			return
		}

		// The config never changes once loaded, publish a static copy.
		expvar.Publish("config", infoString(string(buf)))

		infoTmpl, err = template.New("info").Funcs(funcMap).Parse(infoTmplSrc)
		if err != nil {
			return
		}

		notRunningTmpl, err = template.New("infoNotRunning").Parse(notRunningTmplSrc)
		if err != nil {
			return
		}

		errorTmpl, err = template.New("infoError").Parse(errorTmplSrc)
		if err != nil {
			return
		}
	})

	return err
}

// StatusInfo is what we use to parse expvar response.
// It does not need to contain all the fields, only those we need
// to display when called with `info` as JSON unmarshaller will
// automatically ignore extra fields.
type StatusInfo struct {
	CmdLine  []string `json:"cmdline"`
	Pid      int      `json:"pid"`
	Uptime   int      `json:"uptime"`
	MemStats struct {
		Alloc uint64
	} `json:"memstats"`
	Version    infoVersion        `json:"version"`
	Policy     PolicyInfo         `json:"policy"`
	Captures   CaptureStats       `json:"captures"`
	Validation ValidationInfo     `json:"validation"`
	Config     config.AgentConfig `json:"config"`
}

func getProgramBanner(version string) (string, string) {
	program := fmt.Sprintf("Profiling Agent (v %s)", version)
	banner := strings.Repeat("=", len(program))

	return program, banner
}

// Info writes a standard info message describing the running agent.
// This is not the current program, but an already running program,
// which we query with an HTTP request on its status port.
//
// If error is nil, means the program is running.
// If not, it displays a pretty-printed message anyway (for support)
//
// Typical output of 'profiling-agent info' when agent is running:
//
//	-----8<-------------------------------------------------------
//	==========================
//	Profiling Agent (v 0.99.0)
//	==========================
//
//	  Pid: 38149
//	  Uptime: 15 seconds
//	  Mem alloc: 773552 bytes
//
//	  Policy: memory
//	  Output: /tmp/datadog-profiling
//	  Threshold: 80.0 %
//	  Capture duration: 30s
//	  Cooldown: 5m0s
//	  Polling interval: 10s
//
//	  --- Captures ---
//
//	    Captures: 2
//	    Observations: 1830
//	    Handed off: 1
//	    WARNING: Validation failures: 1
//
//	  --- Last validation ---
//
//	    Trace: /tmp/datadog-profiling/trace-20240301T123000-1a2b3c4d.out
//	    Samples: 12/14
//	    Valid: true
//
//	-----8<-------------------------------------------------------
//
// The "WARNING:" lines are hidden if there's nothing refused or no errors.
//
// Typical output of 'profiling-agent info' when agent is not running:
//
//	-----8<-------------------------------------------------------
//	==========================
//	Profiling Agent (v 0.99.0)
//	==========================
//
//	  Not running (port 5013)
//
//	-----8<-------------------------------------------------------
func Info(w io.Writer, conf *config.AgentConfig) error {
	url := "http://localhost:" + strconv.Itoa(conf.StatusPort) + "/debug/vars"
	client := http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		// Nothing answers on the status port, the agent is probably not
		// running with these parameters. The port is displayed as a hint.
		program, banner := getProgramBanner(Version)
		_ = notRunningTmpl.Execute(w, struct {
			Banner     string
			Program    string
			StatusPort int
		}{
			Banner:     banner,
			Program:    program,
			StatusPort: conf.StatusPort,
		})
		return err
	}

	defer resp.Body.Close() // OK to defer, this is not on hot path

	var info StatusInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		program, banner := getProgramBanner(Version)
		_ = errorTmpl.Execute(w, struct {
			Banner  string
			Program string
			Error   error
			URL     string
		}{
			Banner:  banner,
			Program: program,
			Error:   err,
			URL:     url,
		})
		return err
	}

	// display the remote program version, now that we know it
	program, banner := getProgramBanner(info.Version.Version)

	return infoTmpl.Execute(w, struct {
		Banner  string
		Program string
		Status  *StatusInfo
	}{
		Banner:  banner,
		Program: program,
		Status:  &info,
	})
}
