package traits

import (
	"fmt"
	"strings"
)

const systemPrompt = "You analyze biographies using Yuri Burlan's System-Vector Psychology. " +
	"Score each of the 8 vectors on a 1..7 scale based ONLY on the biography content. " +
	"If evidence is weak, use 4 and state 'insufficient evidence' in rationale. " +
	"Return strict JSON that matches the provided schema. No extra text."

const strictRetryInstruction = "Your last output was not valid JSON. " +
	"Return strict JSON matching the schema only."

const vectorPromptTemplate = `Vectors to score (1..7):
- %s

Scoring rules:
- Base scores only on the biography below. Do not use outside knowledge.
- If evidence is unclear for a vector, assign 4 and add rationale: "insufficient evidence".
- Identify 2-3 dominant vectors by highest scores (ties allowed).
- Provide a brief one-sentence rationale per vector citing concrete biographical cues.

Output JSON schema:
{
  "vectors": {
    "sound": int, "visual": int, "oral": int, "anal": int,
    "urethral": int, "skin": int, "muscular": int, "olfactory": int
  },
  "dominant": [str],
  "rationale": {
    "sound": str, "visual": str, "oral": str, "anal": str,
    "urethral": str, "skin": str, "muscular": str, "olfactory": str
  },
  "confidence": float
}

Biography:
<<<BIO_START>>>
%s
<<<BIO_END>>>
Return only JSON.`

// buildVectorPrompt renders the scoring task prompt for one biography.
func buildVectorPrompt(bioText string) string {
	return fmt.Sprintf(vectorPromptTemplate, strings.Join(VectorNames, ", "), bioText)
}
