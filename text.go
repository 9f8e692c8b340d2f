package main

import (
	"fmt"
	"math"
)

// scrollSeparator is appended to long text so the scroll loops smoothly
const scrollSeparator = "  •  "

// formatTime converts seconds to MM:SS format
func formatTime(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// formatPosition renders "elapsed / total" with fractional seconds truncated
func formatPosition(elapsed, total float64) string {
	return formatTime(wholeSeconds(elapsed)) + " / " + formatTime(wholeSeconds(total))
}

func wholeSeconds(s float64) int64 {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return int64(s)
}

// barCells splits a bar of width cells into filled and empty parts
func barCells(width int, progress float64) (filled, empty int) {
	if width <= 0 {
		return 0, 0
	}
	if progress < 0 || math.IsNaN(progress) {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	filled = int(float64(width) * progress)
	return filled, width - filled
}

// scrollText returns a scrolling window of text with smooth looping
func scrollText(text string, max int, offset int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	fullText := append(runes, []rune(scrollSeparator)...)
	textLen := len(fullText)

	offset = offset % textLen

	var result []rune
	for i := 0; i < max; i++ {
		result = append(result, fullText[(offset+i)%textLen])
	}
	return string(result)
}
