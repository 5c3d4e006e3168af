package parse

// toolName is the function the model is forced to call.
const toolName = "suggest_workout_data"

const systemPrompt = `You are a structured data extractor. Analyze the following text and convert it to structured JSON.
Detect if it is a "workout" or "meal" plan.

Rules for MEAL:
- "dayName" should be the meal time like "صبحانه", "ناهار", "شام", "میان وعده".
- "name" should be the option label like "گزینه ۱".
- "sets" should be the main food description.
- "reps" and "rest" should be EMPTY or '-' unless specifically different instructions exist.

Rules for WORKOUT:
- "dayName" should be day labels like "روز اول - سینه و جلوبازو".
- "name" should be exercise name.
- "sets" should be number of sets.
- "reps" should be number of reps.
- "rest" should be rest time.

If there's a student name, extract it. If there's a weight, extract it.
If there are golden tips or notes, put them in "tips" field.

IMPORTANT: You MUST respond using the ` + toolName + ` tool.`

type object = map[string]any

func stringProp() object { return object{"type": "string"} }

// toolParameters is the JSON schema of the routine the tool returns.
func toolParameters() object {
	item := object{
		"type": "object",
		"properties": object{
			"name": stringProp(),
			"sets": stringProp(),
			"reps": stringProp(),
			"rest": stringProp(),
		},
		"required":             []string{"name", "sets", "reps", "rest"},
		"additionalProperties": false,
	}
	day := object{
		"type": "object",
		"properties": object{
			"dayName":   stringProp(),
			"exercises": object{"type": "array", "items": item},
		},
		"required":             []string{"dayName", "exercises"},
		"additionalProperties": false,
	}
	return object{
		"type": "object",
		"properties": object{
			"type":          object{"type": "string", "enum": []string{"workout", "meal"}},
			"studentName":   stringProp(),
			"studentWeight": stringProp(),
			"tips":          stringProp(),
			"days":          object{"type": "array", "items": day},
		},
		"required":             []string{"type", "days"},
		"additionalProperties": false,
	}
}
