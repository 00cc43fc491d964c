package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smanager/internal/metrics"
	"smanager/pkg/utils"
)

// Theme colors
var (
	PrimaryColor = lipgloss.Color("#5B9BD5")
	AccentColor  = lipgloss.Color("#00D4AA")

	SuccessColor = lipgloss.Color("#2ECC71")
	WarningColor = lipgloss.Color("#F1C40F")
	ErrorColor   = lipgloss.Color("#E74C3C")
	InfoColor    = lipgloss.Color("#5B9BD5")

	TextColor    = lipgloss.Color("#FFFFFF")
	SubtextColor = lipgloss.Color("#B0B0B0")
	MutedColor   = lipgloss.Color("#6C6C6C")
	DimColor     = lipgloss.Color("#4A4A4A")
)

// Base styles
var (
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor).Bold(true)
	WhiteStyle   = lipgloss.NewStyle().Foreground(TextColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	DimStyle     = lipgloss.NewStyle().Foreground(DimColor)
)

// Component styles
var (
	BannerStyle       = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	SectionTitleStyle = lipgloss.NewStyle().Foreground(TextColor).Bold(true)
	BorderStyle       = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	BulletStyle       = lipgloss.NewStyle().Foreground(PrimaryColor)
	KeyStyle          = lipgloss.NewStyle().Foreground(TextColor).Width(14)
	ValueStyle        = lipgloss.NewStyle().Foreground(SubtextColor)
	SeparatorStyle    = lipgloss.NewStyle().Foreground(MutedColor)
	AccentStyle       = lipgloss.NewStyle().Foreground(AccentColor)
)

const (
	IconSuccess = "✓"
	IconWarning = "⚠"
	IconError   = "✗"
	IconInfo    = "ℹ"
	IconBullet  = "•"
	IconDot     = "●"
)

const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
)

const (
	ProgressFull  = "█"
	ProgressEmpty = "░"
)

// DefaultWidth is the inner width of section frames
const DefaultWidth = 60

// RenderBanner returns the styled ASCII banner
func RenderBanner() string {
	banner := `┌─┐┌┬┐┌─┐┌┐┌┌─┐┌─┐┌─┐┬─┐
└─┐│││├─┤│││├─┤│ ┬├┤ ├┬┘
└─┘┴ ┴┴ ┴┘└┘┴ ┴└─┘└─┘┴└─`
	return BannerStyle.Render(banner)
}

// RenderSubtitle returns the styled subtitle
func RenderSubtitle() string {
	return BoldStyle.Foreground(TextColor).Render("   Host Telemetry")
}

// RenderSectionStart returns a styled section header
func RenderSectionStart(title string) string {
	dashCount := DefaultWidth - (len(title) + 4)
	if dashCount < 0 {
		dashCount = 0
	}

	prefix := BorderStyle.Render(BoxTopLeft + BoxHorizontal + " ")
	suffix := BorderStyle.Render(" " + BoxHorizontal + strings.Repeat(BoxHorizontal, dashCount) + BoxTopRight)
	return prefix + SectionTitleStyle.Render(title) + suffix
}

// RenderSectionEnd returns a styled section footer
func RenderSectionEnd() string {
	return BorderStyle.Render(BoxBottomLeft + strings.Repeat(BoxHorizontal, DefaultWidth) + BoxBottomRight)
}

// RenderStatus returns a styled status message
func RenderStatus(status, message string) string {
	icon, style := IconInfo, InfoStyle
	switch status {
	case "success":
		icon, style = IconSuccess, SuccessStyle
	case "warning":
		icon, style = IconWarning, WarningStyle
	case "error":
		icon, style = IconError, ErrorStyle
	}
	return "  " + style.Render(icon) + " " + WhiteStyle.Render(message)
}

// RenderKeyValue returns a styled key-value pair
func RenderKeyValue(key, value string) string {
	return "  " + BulletStyle.Render(IconBullet) + " " +
		KeyStyle.Render(key) + " " +
		SeparatorStyle.Render(":") + " " +
		ValueStyle.Render(value)
}

// RenderProgressBar returns a bar colored by how full it is
func RenderProgressBar(percent float64, width int) string {
	if width <= 0 {
		width = 20
	}

	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barStyle lipgloss.Style
	switch {
	case percent >= 90:
		barStyle = ErrorStyle
	case percent >= 70:
		barStyle = WarningStyle
	default:
		barStyle = SuccessStyle
	}

	return barStyle.Render(strings.Repeat(ProgressFull, filled)) +
		DimStyle.Render(strings.Repeat(ProgressEmpty, width-filled))
}

// RenderSnapshot lays out one snapshot as gauges and rates
func RenderSnapshot(snap *metrics.Snapshot) string {
	if snap == nil {
		return RenderStatus("warning", "No snapshot yet")
	}

	cpu := snap.CPUUsage * 100
	mem := snap.MemoryUsedPercent()
	disk := snap.DiskUsedPercent()
	diskUsed := snap.DiskTotalBytes - snap.DiskFreeBytes
	if snap.DiskFreeBytes > snap.DiskTotalBytes {
		diskUsed = 0
	}

	lines := []string{
		RenderKeyValue("CPU", RenderProgressBar(cpu, 20)+" "+utils.FormatPercentage(cpu)),
		RenderKeyValue("Memory", RenderProgressBar(mem, 20)+" "+utils.FormatUsage(snap.MemoryUsedBytes, snap.MemoryTotalBytes)),
		RenderKeyValue("Disk", RenderProgressBar(disk, 20)+" "+utils.FormatUsage(diskUsed, snap.DiskTotalBytes)),
		RenderKeyValue("Load", utils.FormatLoad(snap.SystemLoadAverage)),
		RenderKeyValue("Disk I/O", "read "+utils.FormatRate(snap.DiskReadBytesPerSec)+"  write "+utils.FormatRate(snap.DiskWriteBytesPerSec)),
		RenderKeyValue("Network", "up "+utils.FormatRate(snap.NetUpBytesPerSec)+"  down "+utils.FormatRate(snap.NetDownBytesPerSec)),
	}
	return strings.Join(lines, "\n")
}
