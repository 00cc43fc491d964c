package ui

import (
	"fmt"
	"sort"

	"smanager/internal/metrics"
)

// PrintHeader prints the application banner
func PrintHeader() {
	fmt.Println(RenderBanner())
	fmt.Println(RenderSubtitle())
	fmt.Println()
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Println(RenderSectionStart(title))
}

// PrintSectionEnd prints a section footer
func PrintSectionEnd() {
	fmt.Println(RenderSectionEnd())
}

// PrintStatus prints a status line with icon
func PrintStatus(status, message string) {
	fmt.Println(RenderStatus(status, message))
}

// PrintKeyValue prints one key-value line
func PrintKeyValue(key, value string) {
	fmt.Println(RenderKeyValue(key, value))
}

// PrintList prints a map as key-value lines sorted by key
func PrintList(data map[string]string) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		PrintKeyValue(k, data[k])
	}
}

// PrintSnapshot prints a framed snapshot
func PrintSnapshot(title string, snap *metrics.Snapshot) {
	PrintSection(title)
	fmt.Println(RenderSnapshot(snap))
	PrintSectionEnd()
}
