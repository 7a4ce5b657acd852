package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/pders01/snooze/internal/config"
)

func TestShowBanner(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "1.0.0-test")
	out := buf.String()

	if !strings.Contains(out, "Hack or Snooze in your terminal") {
		t.Errorf("Expected banner to contain the tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
}

func TestShowBannerDevVersion(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "dev")

	if strings.Contains(buf.String(), "vdev") {
		t.Errorf("dev builds should not carry a version tag, got: %s", buf.String())
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, LogoLines[0]) {
		t.Errorf("Expected compact banner to contain the logo, got: %s", result)
	}
}

func TestApplyColors(t *testing.T) {
	saved := []lipgloss.Color{PrimaryColor, FavoriteColor, MutedColor}
	t.Cleanup(func() {
		PrimaryColor, FavoriteColor, MutedColor = saved[0], saved[1], saved[2]
		buildStyles()
	})

	ApplyColors(config.UIColors{Primary: "#010203", Favorite: "#040506"})

	assert.Equal(t, lipgloss.Color("#010203"), PrimaryColor)
	assert.Equal(t, lipgloss.Color("#040506"), FavoriteColor)
	assert.Equal(t, saved[2], MutedColor, "empty entries keep the current color")
	assert.Equal(t, lipgloss.TerminalColor(lipgloss.Color("#040506")), FavoriteStyle.GetForeground())
}
