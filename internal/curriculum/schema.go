package curriculum

// unitSchema validates a unit YAML document after conversion to JSON.
// Quiz questions carry at least two options, and the answer index must be
// checked against the option count separately since JSON Schema cannot
// compare across fields.
const unitSchema = `{
  "type": "object",
  "required": ["id", "title", "order", "quiz"],
  "properties": {
    "id": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
    "title": {"type": "string", "minLength": 1},
    "summary": {"type": "string"},
    "order": {"type": "integer", "minimum": 1},
    "practice_mode": {"type": "string"},
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["heading", "body"],
        "properties": {
          "heading": {"type": "string", "minLength": 1},
          "body": {"type": "string", "minLength": 1},
          "examples": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "quiz": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["prompt", "options", "answer"],
        "properties": {
          "prompt": {"type": "string", "minLength": 1},
          "options": {"type": "array", "minItems": 2, "items": {"type": "string"}},
          "answer": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`
