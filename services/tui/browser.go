// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the interactive reasoning chain browser.
//
// # Description
//
// This package implements a bubbletea application for browsing stored
// reasoning chains: a filterable list of chain summaries and a detail
// view that renders a selected chain in any of the supported export
// formats.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the
// bubbletea event loop. Do not access TUI state from multiple
// goroutines.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/reasongraph/services/reasoning"
)

// =============================================================================
// View Mode
// =============================================================================

// ViewMode determines which pane the browser shows.
type ViewMode int

const (
	// ViewList shows the chain summary list.
	ViewList ViewMode = iota

	// ViewDetail shows a single rendered chain.
	ViewDetail
)

// exportFormats is the cycle order for the detail view.
var exportFormats = []string{
	reasoning.FormatText,
	reasoning.FormatMarkdown,
	"json",
}

// =============================================================================
// Data Source
// =============================================================================

// ChainSource supplies chain summaries and rendered chains. The
// reasoning engine satisfies it directly.
type ChainSource interface {
	RecentChains(limit int) []reasoning.ChainSummary
	ExportChain(chainID, format string) (string, error)
}

// =============================================================================
// Messages
// =============================================================================

// chainsLoadedMsg delivers a refreshed summary listing.
type chainsLoadedMsg struct {
	summaries []reasoning.ChainSummary
}

// chainRenderedMsg delivers one rendered chain for the detail view.
type chainRenderedMsg struct {
	chainID string
	format  string
	content string
}

// errMsg reports a failed source call.
type errMsg struct {
	err error
}

// =============================================================================
// Config
// =============================================================================

// BrowserConfig configures the chain browser.
type BrowserConfig struct {
	// Limit caps how many chains the list requests per refresh.
	Limit int

	// Width overrides terminal width (0 = auto-detect).
	Width int

	// Height overrides terminal height (0 = auto-detect).
	Height int
}

// DefaultBrowserConfig returns sensible defaults.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Limit: 50,
	}
}

// =============================================================================
// List Items
// =============================================================================

// summaryItem adapts a chain summary to the bubbles list delegate.
type summaryItem struct {
	summary reasoning.ChainSummary
}

// Title implements list.DefaultItem.
func (i summaryItem) Title() string {
	return i.summary.Query
}

// Description implements list.DefaultItem.
func (i summaryItem) Description() string {
	state := "in progress"
	if i.summary.EndTime != nil {
		state = "completed"
	}
	return fmt.Sprintf("%d steps · %s · %s", i.summary.StepCount, state, i.summary.StartTime)
}

// FilterValue implements list.Item.
func (i summaryItem) FilterValue() string {
	return i.summary.Query
}

// =============================================================================
// Model
// =============================================================================

// BrowserModel is the bubbletea model for the chain browser.
//
// # Description
//
// Manages the summary list, the detail viewport, and navigation
// between them. The source is queried through commands, so the model
// itself never blocks the event loop.
type BrowserModel struct {
	// Configuration
	config BrowserConfig

	// Chain data source
	source ChainSource

	// Current navigation state
	viewMode ViewMode
	selected reasoning.ChainSummary
	format   int

	// Components
	list     list.Model
	viewport viewport.Model

	// Terminal dimensions
	width  int
	height int

	// State flags
	ready    bool
	quitting bool
	status   string
}

// NewBrowserModel creates a chain browser model.
//
// # Inputs
//
//   - source: Where summaries and rendered chains come from.
//   - config: Configuration options.
//
// # Outputs
//
//   - BrowserModel: Ready-to-use model for tea.NewProgram.
func NewBrowserModel(source ChainSource, config BrowserConfig) BrowserModel {
	if config.Limit <= 0 {
		config.Limit = DefaultBrowserConfig().Limit
	}

	delegate := list.NewDefaultDelegate()
	chainList := list.New(nil, delegate, config.Width, config.Height)
	chainList.Title = "Reasoning Chains"
	chainList.SetShowStatusBar(false)

	return BrowserModel{
		config:   config,
		source:   source,
		viewMode: ViewList,
		list:     chainList,
	}
}

// Init implements tea.Model.
func (m BrowserModel) Init() tea.Cmd {
	return m.loadChains()
}

// Update implements tea.Model.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		contentHeight := m.height - headerHeight - footerHeight

		m.list.SetSize(m.width, contentHeight)
		if !m.ready {
			m.viewport = viewport.New(m.width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = contentHeight
		}

	case chainsLoadedMsg:
		items := make([]list.Item, 0, len(msg.summaries))
		for _, summary := range msg.summaries {
			items = append(items, summaryItem{summary: summary})
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.status = fmt.Sprintf("%d chains", len(items))

	case chainRenderedMsg:
		m.viewMode = ViewDetail
		m.viewport.SetContent(msg.content)
		m.viewport.GotoTop()
		m.status = ""

	case errMsg:
		m.status = msg.err.Error()

	case tea.KeyMsg:
		// Filtering owns the keyboard while active.
		if m.viewMode == ViewList && m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "q":
			if m.viewMode == ViewDetail {
				m.viewMode = ViewList
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if m.viewMode == ViewList {
				if item, ok := m.list.SelectedItem().(summaryItem); ok {
					m.selected = item.summary
					m.format = 0
					return m, m.renderChain()
				}
			}

		case "esc", "backspace":
			if m.viewMode == ViewDetail {
				m.viewMode = ViewList
				return m, nil
			}

		case "f":
			if m.viewMode == ViewDetail {
				m.format = (m.format + 1) % len(exportFormats)
				return m, m.renderChain()
			}

		case "r":
			if m.viewMode == ViewList {
				return m, m.loadChains()
			}
		}
	}

	// Route remaining input to the active component.
	switch m.viewMode {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m BrowserModel) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Loading...\n"
	}

	var b strings.Builder

	switch m.viewMode {
	case ViewList:
		b.WriteString(m.list.View())
	case ViewDetail:
		b.WriteString(m.renderDetailHeader())
		b.WriteString("\n")
		b.WriteString(m.viewport.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// =============================================================================
// Commands
// =============================================================================

func (m BrowserModel) loadChains() tea.Cmd {
	source, limit := m.source, m.config.Limit
	return func() tea.Msg {
		return chainsLoadedMsg{summaries: source.RecentChains(limit)}
	}
}

func (m BrowserModel) renderChain() tea.Cmd {
	source := m.source
	chainID := m.selected.ChainID
	format := exportFormats[m.format]
	return func() tea.Msg {
		content, err := source.ExportChain(chainID, format)
		if err != nil {
			return errMsg{err: err}
		}
		if content == "" {
			return errMsg{err: fmt.Errorf("chain %s is no longer stored", chainID)}
		}
		return chainRenderedMsg{chainID: chainID, format: format, content: content}
	}
}

// =============================================================================
// Rendering
// =============================================================================

func (m BrowserModel) renderDetailHeader() string {
	title := browserTitleStyle.Render(m.selected.Query)
	meta := browserMetaStyle.Render(fmt.Sprintf("%s · %s", m.selected.ChainID, exportFormats[m.format]))
	return title + "\n" + meta
}

func (m BrowserModel) renderFooter() string {
	var hints string
	switch m.viewMode {
	case ViewList:
		hints = "enter: open · r: refresh · /: filter · q: quit"
	case ViewDetail:
		hints = "f: format · esc: back · q: back"
	}

	footer := browserHelpStyle.Render(hints)
	if m.status != "" {
		footer += "  " + browserStatusStyle.Render(m.status)
	}
	return footer
}

// =============================================================================
// Program
// =============================================================================

// RunBrowser runs the chain browser until the user quits.
//
// # Inputs
//
//   - source: Where summaries and rendered chains come from.
//   - config: Configuration options.
//
// # Outputs
//
//   - error: Terminal or event loop failure.
func RunBrowser(source ChainSource, config BrowserConfig) error {
	p := tea.NewProgram(NewBrowserModel(source, config), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chain browser: %w", err)
	}
	return nil
}

// =============================================================================
// Styles
// =============================================================================

var (
	browserTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	browserMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	browserHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250"))

	browserStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))
)
