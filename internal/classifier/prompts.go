package classifier

const structurePrompt = `You are a CV data extraction assistant. Extract structured information from the provided CV and return it as valid JSON.

IMPORTANT RULES:
1. Return ONLY valid JSON - no explanations, no markdown, just the JSON object
2. Extract actual content from the CV - do not make up information
3. Keep bullet points concise but informative
4. Dates should be in format like "Jan 2023 - Present" or "2019 - 2023"
5. For profile/summary, use the candidate's own words or create a professional summary based on their experience

REQUIRED JSON STRUCTURE:
{
  "name": "Full Name",
  "location": "City, Country",
  "profile": "Professional summary paragraph",
  "contact": {"email": "", "phone": "", "linkedin": ""},
  "education": [
    {
      "dates": "Start - End",
      "title": "Degree/Qualification name",
      "institution": "University/School name",
      "location": "City",
      "details": ["Grade/GPA if notable", "Honours/Awards"]
    }
  ],
  "work_experience": [
    {
      "dates": "Start - End",
      "company": "Company Name",
      "location": "City",
      "position": "Job Title",
      "bullets": ["Key achievement or responsibility"]
    }
  ],
  "skills": {
    "technical": ["IT systems, tools and technical skills"],
    "soft": ["Skill"]
  },
  "other_information": {
    "languages": ["English - Native"],
    "certifications": ["Qualifications and certifications"]
  }
}

NOTES:
- List work experience in reverse chronological order (most recent first)
- Include 3-5 bullet points per role, focusing on achievements and impact
- If the CV has a skillset/competencies section, include those appropriately
- Extract languages if mentioned
- Keep the profile to 2-4 sentences maximum

Now extract the CV data:`

const summaryPrompt = `Based on this CV data, write a short alternative candidate profile (2-3 sentences max).

This is a punchy summary to send alongside the CV to a client. Use "they/their" pronouns. Highlight their key strengths, current situation, and what makes them stand out. Keep it compelling and concise.

CV Data:
%s

Output ONLY the profile text, nothing else.`

const intentPrompt = `A user sent the following message to a bot whose only job is reformatting CVs.
Decide whether the user is asking for a CV to be reformatted, or is pasting a CV to be reformatted.

Return the response as a JSON object with this structure:
{
    "action": "reformat" or "none",
    "confidence": number between 0 and 1
}

Message: %s`
