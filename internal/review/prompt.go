package review

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/refereed/internal/completion"
)

// verdictContract is appended to every reviewer system prompt. The shape
// must stay in sync with Verdict's JSON tags.
const verdictContract = `Respond ONLY with a JSON object inside a single ` + "```json" + ` fence, of this exact shape:
{"score": <number 0-10>, "strengths": ["<short observation>"], "weaknesses": ["<short observation>"], "comment": "<two or three sentences>"}
No text outside the fence.`

// benchmarkContract is the JSON contract for the comparative benchmark call.
const benchmarkContract = `Respond ONLY with a JSON object inside a single ` + "```json" + ` fence, of this exact shape:
{"noveltyVsAccepted": <number 0-10>, "rigorVsAccepted": <number 0-10>, "gaps": ["<shortfall vs accepted work>"], "strengthsVsRejected": ["<advantage over rejected work>"]}
No text outside the fence.`

// benchmarkSampleBudget caps each comparison excerpt, in bytes.
const benchmarkSampleBudget = 1200

// BuildPrompt composes the system and user instructions for one reviewer
// role. Pure and deterministic: the same role and task always produce the
// same prompt. Unknown roles yield a zero prompt.
func BuildPrompt(role Role, task Task) completion.Prompt {
	spec, ok := specFor(role)
	if !ok {
		return completion.Prompt{}
	}
	return buildPrompt(spec, task)
}

func buildPrompt(spec roleSpec, task Task) completion.Prompt {
	var system strings.Builder
	system.WriteString(spec.persona)
	system.WriteString("\n\nYour review focus: ")
	system.WriteString(spec.focus)
	system.WriteString(".\n\n")
	system.WriteString(verdictContract)

	var user strings.Builder
	user.WriteString("# Manuscript under review\n")
	for _, sb := range spec.sections {
		text := task.Sections[sb.key]
		if text == "" {
			continue
		}
		user.WriteString("\n## ")
		user.WriteString(sectionTitle(sb.key))
		user.WriteString("\n")
		user.WriteString(truncate(text, sb.budget))
		user.WriteString("\n")
	}
	writeVenueFraming(&user, task)

	return completion.Prompt{
		System: system.String(),
		User:   user.String(),
	}
}

// buildBenchmarkPrompt composes the comparative benchmark instructions from
// the submission abstract and the selected prior-decision excerpts.
func buildBenchmarkPrompt(task Task, accepted, rejected []string) completion.Prompt {
	var system strings.Builder
	system.WriteString(`You are a comparative reviewer. You receive the abstract of a new submission together with abstract excerpts of papers the venue previously accepted and rejected.
Score the submission against the average of the accepted precedents and name concrete gaps and advantages.`)
	system.WriteString("\n\n")
	system.WriteString(benchmarkContract)

	var user strings.Builder
	user.WriteString("# Submission abstract\n")
	user.WriteString(truncate(task.Sections[SectionAbstract], benchmarkSampleBudget))
	user.WriteString("\n")
	writeSampleSet(&user, "Accepted precedents", accepted)
	writeSampleSet(&user, "Rejected precedents", rejected)
	writeVenueFraming(&user, task)

	return completion.Prompt{
		System: system.String(),
		User:   user.String(),
	}
}

// writeVenueFraming appends the venue name and any profile-derived context.
// Input text is concatenated as data; nothing in the task is interpreted.
func writeVenueFraming(b *strings.Builder, task Task) {
	context := VenueContext(task.ProfileID)
	if task.Venue == "" && context == "" {
		return
	}
	b.WriteString("\n# Venue context\n")
	if task.Venue != "" {
		fmt.Fprintf(b, "Target venue: %s\n", task.Venue)
	}
	if context != "" {
		b.WriteString(context)
		b.WriteString("\n")
	}
}

// writeSampleSet appends one set of comparison excerpts.
func writeSampleSet(b *strings.Builder, title string, samples []string) {
	if len(samples) == 0 {
		return
	}
	b.WriteString("\n# ")
	b.WriteString(title)
	b.WriteString("\n")
	for i, sample := range samples {
		fmt.Fprintf(b, "\n%d. %s\n", i+1, truncate(sample, benchmarkSampleBudget))
	}
}

// sectionTitle renders a section key as a heading.
func sectionTitle(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// truncate hard-cuts s to at most n bytes. The cut is byte-oriented, not
// sentence-aware: a budget landing mid-sentence or mid-rune cuts there.
func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}
