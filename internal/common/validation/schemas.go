package validation

// CandidateSignalsSchema describes the signal extraction response body.
const CandidateSignalsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["signals"],
  "properties": {
    "signals": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "polarity", "evidenceIds", "confidence"],
        "properties": {
          "text": {"type": "string", "minLength": 1},
          "polarity": {"type": "string", "enum": ["friction", "strength", "pattern"]},
          "evidenceIds": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "confidence": {"type": "integer", "minimum": 1, "maximum": 5},
          "mergeKey": {"type": "string"},
          "cause": {"type": "string"},
          "recommendation": {"type": "string"}
        }
      }
    }
  }
}`

// BatchSchema checks the outer shape of an inline feedback batch. Individual
// records are validated later so malformed ones can be dropped and counted.
const BatchSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["surveyId", "records"],
  "properties": {
    "surveyId": {"type": "string", "minLength": 1},
    "records": {"type": "array", "items": {"type": "object"}},
    "profiles": {"type": ["array", "null"], "items": {"type": "object"}}
  }
}`
