package review

import (
	"fmt"
	"strings"
)

// NoContextPlaceholder stands in for retrieved context when none is available.
const NoContextPlaceholder = "(no codebase context available)"

var reviewConcernTypes = []string{"Security", "Bug", "Readability", "Best Practice"}

var vulnerabilityConcernTypes = []string{
	"Security", "Bug", "Readability", "Best Practice",
	"Performance", "Scalability", "Maintainability",
}

// VulnerabilityTypes is the closed set a vulnerability concern may be
// classified into.
var VulnerabilityTypes = []string{
	"Injection",
	"Broken Authentication",
	"Sensitive Data Exposure",
	"XML External Entities (XXE)",
	"Broken Access Control",
	"Security Misconfiguration",
	"Cross-Site Scripting (XSS)",
	"Insecure Deserialization",
	"Using Components with Known Vulnerabilities",
	"Insufficient Logging & Monitoring",
	"Server-Side Request Forgery (SSRF)",
	"Improper Error Handling",
	"Denial-of-Service (DoS)",
	"Memory Leak",
	"Race Condition",
	"Insecure Direct Object References (IDOR)",
	"Path Traversal",
	"Unvalidated Redirects and Forwards",
	"Code Quality",
	"Other",
}

const systemPreamble = `You are an AI-powered code review assistant acting as a Senior Staff Engineer. Your goal is to keep the codebase high-quality, secure, and readable by identifying issues in pull requests.

Analyze the PULL REQUEST DIFF together with the CONTEXT FROM EXISTING CODEBASE.

Your analysis MUST produce a single, clean JSON object. Do not include any other text or markdown outside of the JSON structure.

JSON output structure:
`

// SystemPrompt returns the instruction block for mode. Both modes share the
// same output contract and differ only in the concern taxonomy.
func SystemPrompt(mode Mode) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("{\n")
	b.WriteString(`  "overall_assessment": "A brief, one-sentence summary of the PR's quality.",` + "\n")
	b.WriteString(`  "concerns": [` + "\n")
	b.WriteString("    {\n")
	b.WriteString(`      "file_path": "The full path to the file with the issue.",` + "\n")
	b.WriteString(`      "line_number_start": "The starting line number of the code block in question.",` + "\n")
	b.WriteString(`      "line_number_end": "The ending line number of the code block in question.",` + "\n")
	b.WriteString(`      "severity": "CRITICAL|HIGH|MEDIUM|LOW",` + "\n")

	types := reviewConcernTypes
	if mode == ModeVulnerability {
		types = vulnerabilityConcernTypes
	}
	fmt.Fprintf(&b, "      \"type\": %q,\n", strings.Join(types, "|"))
	if mode == ModeVulnerability {
		fmt.Fprintf(&b, "      \"vulnerability_type\": %q,\n", strings.Join(VulnerabilityTypes, "|"))
	}

	b.WriteString(`      "description": "A detailed and clear explanation of the issue.",` + "\n")
	b.WriteString(`      "suggestion": "A concrete, actionable code suggestion to resolve the issue."` + "\n")
	b.WriteString("    }\n")
	b.WriteString("  ],\n")
	b.WriteString(`  "approve": boolean` + "\n")
	b.WriteString("}\n")
	return b.String()
}

// BuildUserPrompt joins retrieved context and the diff into the question the
// model answers.
func BuildUserPrompt(diff string, contexts []string) string {
	var b strings.Builder

	b.WriteString("CONTEXT FROM EXISTING CODEBASE:\n")
	if len(contexts) == 0 {
		b.WriteString(NoContextPlaceholder)
		b.WriteString("\n")
	}
	for i, c := range contexts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimRight(c, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nPULL REQUEST DIFF:\n")
	b.WriteString(diff)
	if !strings.HasSuffix(diff, "\n") {
		b.WriteString("\n")
	}

	b.WriteString("\nRESPONSE (JSON only):\n")
	return b.String()
}
