package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/hitoshi/optimaflow/internal/model"
)

const analysisSystemPrompt = "You are a sales process expert analyzing automotive and EV companies. " +
	"Provide realistic assessments based on industry patterns."

const strategySystemPrompt = "You are an expert sales strategist for OptimaFlow, a company that installs " +
	"proven sales follow-up systems for automotive dealerships and EV companies in Europe. " +
	"Your strategies should be direct, executive-level, and focused on revenue improvement."

const analysisPromptTemplate = `Analyze the sales process weaknesses for this company:
- Company: %[1]s
- Country: %[2]s
- Type: %[3]s

Based on typical patterns in the %[3]s industry in %[2]s, identify:
1. Lead capture effectiveness (0-10 score, where 10 is excellent)
2. Follow-up system quality (0-10 score)
3. Response speed (0-10 score)
4. Sales process clarity (0-10 score)
5. CRM usage indicators (0-10 score)

For each weakness, provide a brief description of what's likely happening.

Return a JSON response with this exact structure:
{
  "weaknesses": [
    {
      "label": "Captura de Leads",
      "score": 6,
      "description": "Description of the weakness"
    }
  ],
  "hypothesis": "Main hypothesis about their sales inefficiency",
  "insights": ["insight 1", "insight 2", "insight 3"],
  "opportunityScore": 7
}`

const strategyPromptTemplate = `Generate a personalized sales strategy for prospecting this company:
- Company: %s
- Country: %s
- Type: %s
- Main Weakness: %s
- Opportunity Score: %s/10

Create a strategy that:
1. Includes a short, personalized outreach message (LinkedIn/Email style)
2. Provides a hypothesis about their main sales inefficiency
3. Suggests 2 discovery call angles
4. Lists likely objections and professional responses
5. Includes a 15-minute call positioning hook

Remember:
- OptimaFlow installs a proven sales follow-up system (not CRM software)
- Focus on revenue improvement and system clarity
- Do NOT mention automation tools or GoHighLevel
- Keep communication direct and executive-level

Return JSON with this structure:
{
  "outreachMessage": "Full message text",
  "hypothesis": "Hypothesis text",
  "discoveryAngles": ["angle 1", "angle 2"],
  "objections": [
    {
      "objection": "Common objection",
      "response": "Professional response"
    }
  ],
  "callHook": "15-minute hook"
}`

var companyAnalysisSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "weaknesses": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "score": {"type": "number"},
          "description": {"type": "string"}
        },
        "required": ["label", "score", "description"],
        "additionalProperties": false
      }
    },
    "hypothesis": {"type": "string"},
    "insights": {"type": "array", "items": {"type": "string"}},
    "opportunityScore": {"type": "number"}
  },
  "required": ["weaknesses", "hypothesis", "insights", "opportunityScore"],
  "additionalProperties": false
}`)

var salesStrategySchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "outreachMessage": {"type": "string"},
    "hypothesis": {"type": "string"},
    "discoveryAngles": {"type": "array", "items": {"type": "string"}},
    "objections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "objection": {"type": "string"},
          "response": {"type": "string"}
        },
        "required": ["objection", "response"],
        "additionalProperties": false
      }
    },
    "callHook": {"type": "string"}
  },
  "required": ["outreachMessage", "hypothesis", "discoveryAngles", "objections", "callHook"],
  "additionalProperties": false
}`)

func analysisPrompt(p model.CompanyProfile) string {
	return fmt.Sprintf(analysisPromptTemplate, p.CompanyName, p.Country, p.Type)
}

func strategyPrompt(p model.CompanyProfile, a model.CompanyAnalysis) string {
	return fmt.Sprintf(strategyPromptTemplate,
		p.CompanyName, p.Country, p.Type, a.Hypothesis, formatScore(a.OpportunityScore))
}

// formatScore は整数値を小数点なしで出力する（7 → "7"、6.5 → "6.5"）。
func formatScore(v float64) string {
	return fmt.Sprintf("%g", v)
}
