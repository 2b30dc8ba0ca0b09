package internal

import "time"

type FormatTag string

const (
	FormatCableKm    FormatTag = "cabo_km"
	FormatBarcode    FormatTag = "codigo_barras"
	FormatPriceTable FormatTag = "tabela_precos"
	FormatUnknown    FormatTag = "desconhecido"
)

type FailureKind string

const (
	FailureExtractionEmpty     FailureKind = "EXTRACTION_EMPTY"
	FailureFormatUnrecognized  FailureKind = "FORMAT_UNRECOGNIZED"
	FailureNoValidRecords      FailureKind = "NO_VALID_RECORDS"
	FailureNormalizationFailed FailureKind = "NORMALIZATION_FAILED"
	FailureStorageWrite        FailureKind = "STORAGE_WRITE_ERROR"
)

const (
	CategoryCables   = "cabos"
	CategorySockets  = "tomadas"
	CategorySwitches = "int"
	CategoryGeneral  = "geral"

	UnitPiece = "un"
	UnitMeter = "m"
)

// CandidateItem is what a vendor parser produces for one record, before
// validation and pricing.
type CandidateItem struct {
	Format      FormatTag `json:"format"`
	Referencia  string    `json:"referencia"`
	Nome        string    `json:"nome"`
	Marca       string    `json:"marca"`
	Categoria   string    `json:"categoria"`
	Unidade     string    `json:"unidade"`
	PrecoCompra float64   `json:"precoCompra"`
	RawLine     string    `json:"-"`
}

type CatalogRecord struct {
	Referencia  string    `json:"referencia"`
	Nome        string    `json:"nome"`
	Marca       string    `json:"marca"`
	Categoria   string    `json:"categoria"`
	Unidade     string    `json:"unidade"`
	IVA         float64   `json:"iva"`
	PrecoCompra float64   `json:"precoCompra"`
	PrecoVenda  float64   `json:"precoVenda"`
	StockAtual  int       `json:"stockAtual"`
	Fornecedor  string    `json:"fornecedor"`
	Notas       string    `json:"notas"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type WriteError struct {
	Referencia string `json:"referencia"`
	Message    string `json:"message"`
}

type BulkWriteResult struct {
	Matched     int          `json:"matched"`
	Modified    int          `json:"modified"`
	Upserted    int          `json:"upserted"`
	WriteErrors []WriteError `json:"writeErrors,omitempty"`
}

type ImportFailure struct {
	Kind        FailureKind `json:"errorKind"`
	Message     string      `json:"message"`
	SampleLines []string    `json:"sampleLines"`
}

type ImportReport struct {
	RunID       string          `json:"runId"`
	Format      FormatTag       `json:"format"`
	FoundCount  int             `json:"foundCount"`
	Upserted    int             `json:"upserted"`
	Modified    int             `json:"modified"`
	Matched     int             `json:"matched"`
	WriteErrors []WriteError    `json:"writeErrors,omitempty"`
	Preview     []CatalogRecord `json:"preview"`
	Failure     *ImportFailure  `json:"failure,omitempty"`
}

func (r ImportReport) OK() bool {
	return r.Failure == nil
}

type ImportRun struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Filename    string    `json:"filename"`
	Format      FormatTag `json:"format"`
	Status      string    `json:"status"`
	FailureKind string    `json:"failureKind,omitempty"`
	Found       int       `json:"found"`
	Upserted    int       `json:"upserted"`
	Modified    int       `json:"modified"`
	Matched     int       `json:"matched"`
	WriteErrors int       `json:"writeErrors"`
	DurationMs  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
