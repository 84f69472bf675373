package mcpserver

// TaskFormatContract describes the task line syntax that LLM consumers
// should follow when reading or writing tasks in the vault.
const TaskFormatContract = `# Cadence Task Format

A task is a single Markdown list item with a checkbox.

` + "```" + `markdown
- [ ] Open task text due:2026-02-20 priority:high #work
- [x] Completed task created:2026-02-01
  - [ ] Indented tasks are tasks too
` + "```" + `

## Checkbox

- ` + "`" + `- [ ]` + "`" + ` is open, ` + "`" + `[x]` + "`" + ` or ` + "`" + `[X]` + "`" + ` is completed.
- Toggling rewrites only the checkbox character.

## Metadata tokens

Tokens are separated from the text by whitespace and may appear anywhere after the checkbox.

| Token | Meaning |
|-------|---------|
| ` + "`" + `due:YYYY-MM-DD` + "`" + ` | Due date; overdue once it is before today |
| ` + "`" + `scheduled:YYYY-MM-DD` + "`" + ` | Date the task is planned for |
| ` + "`" + `created:YYYY-MM-DD` + "`" + ` | Date the task was written; added automatically |
| ` + "`" + `priority:high` + "`" + ` | high, medium or low |
| ` + "`" + `!!!` + "`" + ` / ` + "`" + `!!` + "`" + ` / ` + "`" + `!` + "`" + ` | Shorthand for high, medium and low |
| ` + "`" + `age:N` + "`" + ` | Number of times the task was rolled over |
| ` + "`" + `#tag` + "`" + ` | Tag; ASCII letters, digits, ` + "`" + `-` + "`" + ` and ` + "`" + `_` + "`" + ` |

Malformed tokens (for example ` + "`" + `due:tomorrow` + "`" + `) stay part of the task text.
When a field appears twice the first occurrence wins.

## Notes

- Daily notes live at the path configured in ` + "`" + `.cadence/config.yaml` + "`" + `
  (default ` + "`" + `journal/daily/{YYYY}/{MM}/{YYYY}-{MM}-{DD}.md` + "`" + `).
- New tasks go under the ` + "`" + `## Tasks` + "`" + ` heading unless another section is given.
- Rollover copies open tasks from recent daily notes into today's note and bumps ` + "`" + `age` + "`" + `.
- Line numbers are 1-based; address a task by note path and line.
`
