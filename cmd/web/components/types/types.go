package types

// PageData represents data passed to templates
type PageData struct {
	Title      string
	Version    string
	Configured bool
	// Notice is the configuration-needed message, shown once at the top.
	Notice string

	// Search form and outcome.
	Query        string
	Count        int
	CountOptions []int
	Phase        string
	Message      string
	SourceLabel  string
	Results      []PhotoCard

	Panel PanelData
	// Error reports a failed panel action.
	Error string
}

// PhotoCard is one photo ready for display
type PhotoCard struct {
	ID        string
	Title     string
	OwnerName string
	ImageURL  string
	PageURL   string
	Tags      []string
}

// WordCard is one word of the inspiration panel
type WordCard struct {
	Word       string
	Label      string
	Photo      *PhotoCard
	Candidates int
	CanReroll  bool
	Error      string
}

// PanelData is the inspiration panel as rendered
type PanelData struct {
	Loading    bool
	Generation uint64
	Words      []WordCard
}
