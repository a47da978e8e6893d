// Package ui provides the styled CLI output of lowvr outside the dashboard:
// the runs and metrics listings, doctor results and the --pick selector.
//
// # Color Scheme
//
// Colors are ANSI codes so output follows the terminal theme:
//
//	ColorSuccess   (green)  - Passing checks, improving trends
//	ColorError     (red)    - Failures
//	ColorWarning   (yellow) - Warnings
//	ColorInfo      (cyan)   - Run IDs, neutral trends
//	ColorMuted     (gray)   - Suggestions, offline markers
//
// SetColorMode applies the output.color setting; piped output is plain.
//
// # Tables
//
//	RenderRunsTable   - runs listing with relative times and sparklines
//	RenderSimpleTable - bubbles table sized to its cells
//	RenderPlainTable  - tab-aligned text for non-terminal output
//	RenderDoctorTable - check results grouped by category
package ui
