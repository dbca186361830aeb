package web

import (
	"fmt"
	"time"

	vm "github.com/ericfisherdev/replybot/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// toRunViewModel converts a domain RunStatus for the status panel.
func toRunViewModel(s model.RunStatus) vm.RunViewModel {
	label := "Start"
	if s.Running {
		label = "Stop"
	}

	return vm.RunViewModel{
		Running:     s.Running,
		State:       string(s.State),
		Model:       s.Model,
		Visited:     s.Visited,
		Replied:     s.Replied,
		Skipped:     s.Skipped,
		LastError:   s.LastError,
		ToggleLabel: label,
	}
}

// toModelOptions marks selected in models. A selected model missing from the
// list is prepended so the current choice is never lost.
func toModelOptions(models []string, selected string) []vm.ModelOption {
	opts := make([]vm.ModelOption, 0, len(models)+1)
	found := false
	for _, id := range models {
		isSel := id == selected
		found = found || isSel
		opts = append(opts, vm.ModelOption{ID: id, Selected: isSel})
	}
	if !found && selected != "" {
		opts = append([]vm.ModelOption{{ID: selected, Selected: true}}, opts...)
	}
	return opts
}

// toReplyViewModels converts reply log entries, rendering suggestions as
// sanitized markdown.
func toReplyViewModels(entries []model.ReplyLogEntry, now time.Time) []vm.ReplyViewModel {
	out := make([]vm.ReplyViewModel, 0, len(entries))
	for _, e := range entries {
		out = append(out, vm.ReplyViewModel{
			Comment:       e.CommentText,
			SuggestedHTML: RenderMarkdown(e.SuggestedText),
			Model:         e.Model,
			Submitted:     e.Submitted,
			Error:         e.Error,
			CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
			Age:           formatAge(e.CreatedAt, now),
		})
	}
	return out
}

// formatAge renders the time since t in the coarsest whole unit.
func formatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
