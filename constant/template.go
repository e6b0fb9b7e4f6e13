package constant

// TimelineTemplate is a Go text/template for scaffolding new ordered-chapter timeline files.
const TimelineTemplate = `# {{ .Name }}
# Ordered-chapter timeline. Each part plays [source_start, source_start + length)
# of its source, placed back to back on the logical timeline.

title = "{{ .Name }}"
# requires = "0.3.0"

[[sources]]
id = "main"
kind = "synth"
duration = 60.0
fps = 25.0
sample_rate = 48000
channels = 2

[[parts]]
source = "main"
source_start = 0.0
length = 30.0

[[chapters]]
name = "Opening"
start = 0.0
`
