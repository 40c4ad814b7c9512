package gemini

const audioAnalysisPrompt = `Please analyze this audio and provide:
1. A complete transcription of the speech
2. The user's intent (what they're looking for)
3. Extract any specific requirements mentioned (cuisine type, price range, dietary restrictions, location, etc.)

Format your response as JSON with these fields:
- transcription: the full text
- intent: brief description of what they want
- requirements: object with extracted details (cuisine, price, dietary, location, etc.)
- search_query: a natural language search query for Yelp based on the audio`

const imageAnalysisPrompt = `Please analyze this image and provide:
1. What type of food or dining scene is shown
2. Identify specific dishes, cuisines, or restaurant types visible
3. Describe the ambiance, setting, or dining style if visible
4. Extract any text visible in the image (menu items, restaurant names, etc.)
5. Suggest what the user might be looking for based on this image

Format your response as JSON with these fields:
- description: detailed description of what's in the image
- food_items: list of identified food items or dishes
- cuisine_type: detected cuisine type(s)
- ambiance: description of setting/ambiance if visible
- extracted_text: any text visible in the image
- search_suggestions: list of search queries that would find similar places/food
- dietary_notes: any visible dietary attributes (vegan, gluten-free, etc.)`

const multimodalAnalysisPrompt = `Provide a comprehensive analysis in JSON format:
- combined_intent: what the user is looking for overall
- cuisine_preferences: extracted cuisine types
- dietary_requirements: any dietary needs
- ambiance_preferences: preferred setting/ambiance
- price_range: budget indication
- location_hints: any location mentions
- unified_search_query: single best search query for Yelp
- confidence: how confident you are (0-1)`
