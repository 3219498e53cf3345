package mcpserver

// NoteFormatContract describes the canonical note-file format that LLM
// consumers should expect when reading papers.
const NoteFormatContract = `# Papers Note Format Contract

Every paper in the repository is a single Markdown note file.

## Structure

` + "```" + `markdown
---
title: The paper title          # REQUIRED - the note path derives from it
url: https://example.com/a.pdf  # source URL, null when not fetched
filename: a.pdf                 # document file relative to the repo root, null when absent
tags: [reading, ml]             # deduplicated
labels: {priority: 3}           # key=value pairs, primitive values
authors: [First Author, Second Author]
created_at: 2025-01-15T10:00:00Z
modified_at: 2025-01-15T10:00:00Z
last_review: null               # spaced-repetition state
next_review: null
---
Free-form notes in Markdown.
` + "```" + `

## Rules

1. The front-matter fences are the first thing in the file.
2. ` + "`" + `title` + "`" + ` is required. The note file name is the title with
   ` + "`" + `/ \ ? % * : | " < > .` + "`" + ` stripped, plus ` + "`" + `.md` + "`" + `.
3. Everything after the closing fence is the notes body, verbatim.
4. Timestamps are UTC at second resolution.
`
