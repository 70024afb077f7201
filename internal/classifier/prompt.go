package classifier

// classifyPrompt is the fixed instruction sent with every screenshot. The
// model self-applies the categorization rubric and confidence scale; the
// pipeline only checks that the returned structure parses.
const classifyPrompt = `This image is a screenshot of a social media post. Extract its content and classify it. Return JSON only.

Return a JSON object with this structure:
{
  "author": "@handle",
  "author_name": "Display Name",
  "date": "approximate date as shown, or empty",
  "text": "the full extracted post text",
  "has_images": false,
  "is_thread": false,
  "engagement": {"likes": 1200, "shares": 45, "replies": 12},
  "category": "resource",
  "confidence": 0.9,
  "tags": ["tag-one", "tag-two"],
  "summary": "one sentence summarizing the post",
  "title": "a short note title",
  "relevance": "2-3 sentences on why this post is worth keeping"
}

Rules:
- "category" is exactly one of:
  - "resource": reference material, tools, articles, techniques worth keeping
  - "project-idea": something actionable the reader could build or start
- "confidence" is 0.0-1.0: use 0.8 or higher when the category is clear,
  0.5-0.7 when it is uncertain
- "engagement" counts may each be null when not visible in the screenshot
- "has_images" is true only when the post embeds pictures beyond the text
- "is_thread" is true when the post is part of a longer thread
- suggest at most 5 lowercase, hyphenated tags
- "date" is the date shown on the post, not today's date

Return ONLY the JSON, no other text.`
