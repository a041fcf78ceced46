package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	prompt lipgloss.Style
	you    lipgloss.Style
	twin   lipgloss.Style
	dim    lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	box    lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			title: plain.Bold(true), prompt: plain, you: plain, twin: plain,
			dim: plain, ok: plain, err: plain,
			box: plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
		}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		you:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")),
		twin:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1),
	}
}
