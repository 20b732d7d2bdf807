package mcpserver

// RecordSchemaContract describes the JSON metadata document every
// Snapvault record is stored as. LLM consumers should read it before
// interpreting read_record output.
const RecordSchemaContract = `# Snapvault Record Schema

Every record in the vault is a single JSON document next to its image
assets, all in one flat directory.

## Document

` + "```" + `json
{
  "id": 1700000000000,
  "createdAt": "2023-11-14T22:13:20.000Z",
  "imagePath": "/vault/capture_2023-11-14T22-13-20_1700000000000.png",
  "clipboard": {
    "types": ["text", "image"],
    "text": "what was on the clipboard",
    "imagePath": "/vault/clipboard_1700000000000.png"
  },
  "note": {
    "text": "user-written note",
    "updatedAt": "2023-11-14T22:13:20.000Z"
  },
  "status": "todo",
  "order": 1700000000000
}
` + "```" + `

## Fields

1. **` + "`" + `id` + "`" + `** is the creation time in Unix milliseconds and never changes.
2. **` + "`" + `createdAt` + "`" + `** and all other timestamps are UTC ISO-8601 with
   millisecond precision (` + "`" + `2006-01-02T15:04:05.000Z` + "`" + `).
3. **` + "`" + `imagePath` + "`" + `** is present only on screenshot records.
4. **` + "`" + `clipboard.types` + "`" + `** lists what the clipboard held at capture
   time: ` + "`" + `"text"` + "`" + `, ` + "`" + `"image"` + "`" + `, or both. ` + "`" + `text` + "`" + ` and
   ` + "`" + `imagePath` + "`" + ` are set accordingly.
5. **` + "`" + `status` + "`" + `** is ` + "`" + `todo` + "`" + ` or ` + "`" + `done` + "`" + `. Nothing else is valid.
6. **` + "`" + `order` + "`" + `** drives the sort position: higher values list first,
   ties break on newer ` + "`" + `createdAt` + "`" + `. New records start with
   ` + "`" + `order` + "`" + ` equal to ` + "`" + `id` + "`" + `.

## File names

- Metadata: ` + "`" + `<kind>_<yyyy-MM-ddTHH-mm-ss>_<id>.json` + "`" + ` where kind is
  ` + "`" + `capture` + "`" + `, ` + "`" + `note` + "`" + ` or ` + "`" + `clip` + "`" + `.
- Screenshots share the metadata base name with a ` + "`" + `.png` + "`" + ` extension.
- Clipboard images are always ` + "`" + `clipboard_<id>.png` + "`" + `.
`
