package llm

import (
	"fmt"
	"strings"
)

var postPlatformInstructions = map[string]string{
	"facebook":  "Create a Facebook post that is engaging and encourages interaction",
	"instagram": "Create an Instagram caption that is visually descriptive and uses emojis appropriately",
	"tiktok":    "Create a TikTok caption that is trendy, short, and uses popular hashtags",
	"general":   "Create a social media post that works across platforms",
}

var hashtagPlatformInstructions = map[string]string{
	"instagram": "Generate Instagram hashtags that are popular and relevant",
	"tiktok":    "Generate TikTok hashtags that are trending and viral",
	"general":   "Generate general social media hashtags",
}

// BuildPostPrompt assembles the prompt for social media post generation from
// the user's business profile and the requested platform and tone.
func BuildPostPrompt(businessDescription, clientAvatars, platform, tone string, maxTokens int) string {
	context := fmt.Sprintf("Business: %s", businessDescription)
	if clientAvatars != "" {
		context += fmt.Sprintf("\nTarget Audience: %s", clientAvatars)
	}

	instructions, ok := postPlatformInstructions[platform]
	if !ok {
		instructions = postPlatformInstructions["general"]
	}

	return fmt.Sprintf(`%s

Platform: %s
Tone: %s
Instructions: %s

Please generate a compelling social media post that:
1. Matches the business description and target audience
2. Uses the specified tone
3. Is optimized for the specified platform
4. Is engaging and encourages interaction
5. Stays within %d characters

Generate only the post content, no additional explanations.`, context, platform, tone, instructions, maxTokens)
}

// BuildHashtagPrompt assembles the prompt for hashtag generation.
func BuildHashtagPrompt(content, platform string, count int) string {
	instructions, ok := hashtagPlatformInstructions[platform]
	if !ok {
		instructions = hashtagPlatformInstructions["general"]
	}

	return fmt.Sprintf(`Content: %s

Platform: %s
Instructions: %s

Please generate %d relevant hashtags for this content.
Return only the hashtags separated by commas, no additional text.
Example format: #hashtag1, #hashtag2, #hashtag3`, content, platform, instructions, count)
}

// ParseHashtags splits a comma separated completion into trimmed hashtags.
func ParseHashtags(text string) []string {
	parts := strings.Split(strings.TrimSpace(text), ",")
	hashtags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			hashtags = append(hashtags, tag)
		}
	}
	return hashtags
}
