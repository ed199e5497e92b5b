// Package convoy implements the per-owner Conversation FSM (spec §4.8):
// the state graph that drives the print and scan lifecycles from a chat
// front-end, built on github.com/looplab/fsm the way a conversational
// agent's turn-taking graph typically is.
package convoy

// State is one of the conversation's state tags (spec §4.8).
type State string

// Known states.
const (
	StateDefault          State = "Default"
	StatePrintSettingsMenu State = "PrintSettingsMenu"
	StateSetupPrinter     State = "SetupPrinter"
	StateSetupCopies      State = "SetupCopies"
	StateSetupPages       State = "SetupPages"
	StateSetupSides       State = "SetupSides"
	StateSetupLayout      State = "SetupLayout"
	StatePrinting         State = "Printing"
	StateScanSettingsMenu State = "ScanSettingsMenu"
	StateSetupScanMode    State = "SetupScanMode"
	StateSetupScanner     State = "SetupScanner"
	StateSetupQuality     State = "SetupQuality"
	StateSetupScanSides   State = "SetupScanSides"
	StateSetupCrop        State = "SetupCrop"
	StateSetupName        State = "SetupName"
	StateScanning         State = "Scanning"
	StateScanPauseMenu    State = "ScanPauseMenu"
)

var printSetupStates = []string{
	string(StateSetupPrinter), string(StateSetupCopies), string(StateSetupPages),
	string(StateSetupSides), string(StateSetupLayout),
}

var scanSetupStates = []string{
	string(StateSetupScanMode), string(StateSetupScanner), string(StateSetupQuality),
	string(StateSetupScanSides), string(StateSetupCrop), string(StateSetupName),
}

// Event names for fsm.FSM's event table (spec §4.8 "Transition rules").
const (
	EventReceiveDocument = "receive_document"
	EventStartScan       = "start_scan_command"

	EventEnterSetupPrinter = "enter_setup_printer"
	EventEnterSetupCopies  = "enter_setup_copies"
	EventEnterSetupPages   = "enter_setup_pages"
	EventEnterSetupSides   = "enter_setup_sides"
	EventEnterSetupLayout  = "enter_setup_layout"
	EventLeavePrintSetup   = "leave_print_setup"
	EventConfirmPrint      = "confirm_print"
	EventPrintDone         = "print_done"

	EventEnterSetupScanMode  = "enter_setup_scan_mode"
	EventEnterSetupScanner   = "enter_setup_scanner"
	EventEnterSetupQuality   = "enter_setup_quality"
	EventEnterSetupScanSides = "enter_setup_scan_sides"
	EventEnterSetupCrop      = "enter_setup_crop"
	EventEnterSetupName      = "enter_setup_name"
	EventLeaveScanSetup      = "leave_scan_setup"

	EventStartScanning = "start_scanning"
	EventFetchSuccess  = "fetch_success"
	EventScanBusyToMenu = "scan_busy_to_menu"
	EventScanBusyToPause = "scan_busy_to_pause"
	EventScanMore        = "scan_more"
	EventScanNew         = "scan_new"
	EventScanFinish      = "scan_finish"
	EventScanCancel      = "scan_cancel"
)

// Row is the per-owner FSM row persisted via the StateStore port (spec
// §3 "Conversation FSM row", §4.8's context key list, §9's tagged-variant
// design note — represented here as one struct with every key optional).
type Row struct {
	State State `json:"state"`

	// Print-flow context.
	Printer               string `json:"printer,omitempty"`
	Pages                 int    `json:"pages,omitempty"`
	FileHandle            string `json:"file_handle,omitempty"`
	Copies                int    `json:"copies,omitempty"`
	PageRanges            string `json:"page_ranges,omitempty"`
	Sides                 string `json:"sides,omitempty"`
	NumberUp              int    `json:"number_up,omitempty"`
	JobID                 int    `json:"job_id,omitempty"`
	ConfirmationMessageID *int64 `json:"confirmation_message_id,omitempty"`
	JobSettingsMessageID  *int64 `json:"job_settings_message_id,omitempty"`

	// Scan-flow context.
	Mode                string `json:"mode,omitempty"` // "manual" | "auto"
	Scanner             string `json:"scanner,omitempty"`
	Quality             int    `json:"quality,omitempty"`
	ScanSides           bool   `json:"scan_sides,omitempty"`
	Crop                bool   `json:"crop,omitempty"`
	ScanFileHandle      string `json:"scan_file_handle,omitempty"`
	ScanResultPageCount int    `json:"scan_result_page_count,omitempty"`
	ScanJobID           string `json:"scan_job_id,omitempty"`
	ScanName            string `json:"scan_name,omitempty"`
}

// resetPrintContext clears every print-flow key, leaving scan-flow and
// State untouched.
func (r *Row) resetPrintContext() {
	r.Printer = ""
	r.Pages = 0
	r.FileHandle = ""
	r.Copies = 0
	r.PageRanges = ""
	r.Sides = ""
	r.NumberUp = 0
	r.JobID = 0
	r.ConfirmationMessageID = nil
	r.JobSettingsMessageID = nil
}

// resetScanContext clears every scan-flow key, leaving print-flow and
// State untouched.
func (r *Row) resetScanContext() {
	r.Mode = ""
	r.Scanner = ""
	r.Quality = 0
	r.ScanSides = false
	r.Crop = false
	r.ScanFileHandle = ""
	r.ScanResultPageCount = 0
	r.ScanJobID = ""
	r.ScanName = ""
}
