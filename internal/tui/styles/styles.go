package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber      = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Blue)
)

// Row styles
var (
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight).
				Padding(0, 1)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)
)

// Pending sync markers
const (
	PendingChar = "●"
	SyncedChar  = " "
)

var PendingDot = AccentStyle.Render(PendingChar)

// Connectivity badges
var (
	OnlineBadge = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Green).
			Padding(0, 1).
			Render("ONLINE")

	OfflineBadge = lipgloss.NewStyle().
			Foreground(White).
			Background(Red).
			Padding(0, 1).
			Render("OFFLINE")
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Width(8)
)

// Footer
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Amber)
)
