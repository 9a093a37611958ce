package internal

// RawCard is one card object as decoded from the upstream JSON. Any key may
// be absent or null, so it is read through util coercion helpers only.
type RawCard map[string]any

type SchemaVariant string

const (
	VariantA SchemaVariant = "a"
	VariantB SchemaVariant = "b"
)

// NoValue marks an unknown numeric field.
const NoValue = -1

// FlagNames are the card-type words checked against the classification
// string. Each becomes an is_<name> column.
var FlagNames = []string{
	"normal", "effect", "fusion", "ritual", "synchro", "xyz",
	"pendulum", "link", "flip", "gemini", "spirit",
	"toon", "tuner", "union",
}

type NormalizedCard struct {
	ID             string            `json:"id"`
	Passcode       string            `json:"passcode"`
	Name           string            `json:"name"`
	Category       string            `json:"category"`
	Attribute      string            `json:"attribute"`
	Type           string            `json:"type"`
	Level          int               `json:"level"`
	Atk            int               `json:"atk"`
	Def            int               `json:"def"`
	Link           int               `json:"link"`
	PendulumScale  int               `json:"pendulum_scale"`
	Description    string            `json:"description"`
	PendulumEffect string            `json:"pendulum_effect"`
	LinkArrows     string            `json:"link_arrows"`
	Flags          map[string]string `json:"flags"`
	Icon           string            `json:"icon"`
}

type InputRow struct {
	LineNo     int
	ExternalID string
	Name       string
}

type OutcomeStatus string

const (
	OutcomeSaved   OutcomeStatus = "saved"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

type RowOutcome struct {
	LineNo     int
	ExternalID string
	Name       string
	Status     OutcomeStatus
	Passcode   string
	Error      string
}

type RunRow struct {
	ID         int
	TraceID    string
	InputPath  string
	OutputPath string
	Variant    string
	StartedAt  string
	FinishedAt *string
	CountsJSON string
}

type RunSummary struct {
	TraceID string
	Total   int
	Saved   int
	Failed  int
	Skipped int
}
