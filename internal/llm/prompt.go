package llm

import "strings"

// BuildExtractionPrompt composes the fixed instructional prompt: one JSON
// array per document, one object per page, exactly the declared field names,
// empty string for anything missing or illegible.
func BuildExtractionPrompt() string {
	parts := []string{
		"Please analyze the attached application form.",
		"The document may contain MULTIPLE pages. Each page represents a separate application.",
		"Extract the following information from EACH page and return them as a JSON ARRAY of objects.",
		"",
		"Fields to extract per page:",
		"- name (Name of the person)",
		"- furigana (Reading of the name)",
		"- gender (1 for Male, 2 for Female, 0 for Unknown/Other)",
		"- dobYear (Year of Birth, 4 digits)",
		"- dobMonth (Month of Birth, 1-12)",
		"- dobDay (Day of Birth, 1-31)",
		"- address (Full Address including prefecture, city, street, building)",
		"- postalCode (Postal Code - if missing, try to infer from address or leave blank)",
		"- phone (Phone Number)",
		"- occupation (Job/Occupation)",
		"- cardNumber (8-digit number found on receipt, if attached)",
		"",
		"Return ONLY the JSON ARRAY, no markdown formatting.",
		"If a field is not found or illegible, set it to an empty string.",
	}
	return strings.Join(parts, "\n")
}
