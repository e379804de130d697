package logging

import "strings"

// FormatSubject builds the component/topic/playlist subject string used in console output.
func FormatSubject(component, topic, playlist string) string {
	component = strings.TrimSpace(component)
	topic = strings.TrimSpace(topic)
	playlist = strings.TrimSpace(playlist)
	parts := make([]string, 0, 3)
	if component != "" {
		parts = append(parts, component)
	}
	switch {
	case topic != "" && playlist != "":
		parts = append(parts, topic+" ("+playlist+")")
	case topic != "":
		parts = append(parts, topic)
	case playlist != "":
		parts = append(parts, "Playlist "+playlist)
	}
	return strings.Join(parts, " · ")
}
