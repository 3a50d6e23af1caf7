package language

// greetings is the opening line spoken once per call, before the caller has
// said anything. The en-IN and hi-IN copy is carried verbatim from the
// original call handler; the remaining nine are parallel phrasings of the
// same sentence, extending the drafted pair to the full supported set.
var greetings = map[Code]string{
	EnglishIndia:   "Hello! I am here to help you. Please tell me how I can assist you?",
	HindiIndia:     "नमस्ते! मैं आपकी सहायता के लिए यहाँ हूँ। कृपया बताएं कि मैं आपकी कैसे मदद कर सकती हूँ?",
	BengaliIndia:   "নমস্কার! আমি আপনাকে সাহায্য করতে এখানে আছি। অনুগ্রহ করে বলুন আমি কীভাবে সাহায্য করতে পারি?",
	GujaratiIndia:  "નમસ્તે! હું તમારી મદદ માટે અહીં છું. કૃપા કરી જણાવો હું તમારી કેવી રીતે મદદ કરી શકું?",
	KannadaIndia:   "ನಮಸ್ಕಾರ! ನಾನು ನಿಮಗೆ ಸಹಾಯ ಮಾಡಲು ಇಲ್ಲಿದ್ದೇನೆ. ದಯವಿಟ್ಟು ಹೇಳಿ ನಾನು ನಿಮಗೆ ಹೇಗೆ ಸಹಾಯ ಮಾಡಬಹುದು?",
	MalayalamIndia: "നമസ്കാരം! ഞാൻ നിങ്ങളെ സഹായിക്കാൻ ഇവിടെയുണ്ട്. ദയവായി പറയൂ ഞാൻ നിങ്ങളെ എങ്ങനെ സഹായിക്കാം?",
	MarathiIndia:   "नमस्कार! मी तुमची मदत करण्यासाठी येथे आहे. कृपया सांगा मी तुमची कशी मदत करू शकते?",
	OdiaIndia:      "ନମସ୍କାର! ମୁଁ ଆପଣଙ୍କୁ ସାହାଯ୍ୟ କରିବାକୁ ଏଠାରେ ଅଛି। ଦୟାକରି କୁହନ୍ତୁ ମୁଁ କିପରି ସାହାଯ୍ୟ କରିପାରିବି?",
	PunjabiIndia:   "ਸਤ ਸ੍ਰੀ ਅਕਾਲ! ਮੈਂ ਤੁਹਾਡੀ ਮਦਦ ਲਈ ਇੱਥੇ ਹਾਂ। ਕਿਰਪਾ ਕਰਕੇ ਦੱਸੋ ਮੈਂ ਤੁਹਾਡੀ ਕਿਵੇਂ ਮਦਦ ਕਰ ਸਕਦੀ ਹਾਂ?",
	TamilIndia:     "வணக்கம்! நான் உங்களுக்கு உதவ இங்கே இருக்கிறேன். நான் உங்களுக்கு எப்படி உதவ முடியும் என்று சொல்லுங்கள்?",
	TeluguIndia:    "నమస్కారం! నేను మీకు సహాయం చేయడానికి ఇక్కడ ఉన్నాను. నేను మీకు ఎలా సహాయం చేయగలనో దయచేసి చెప్పండి?",
}

// farewells is spoken once as the session enters Ending. The en-IN copy is a
// direct translation of the hi-IN line carried verbatim from the original
// call handler's farewell message.
var farewells = map[Code]string{
	EnglishIndia:   "Thank you for calling. Have a good day. Goodbye!",
	HindiIndia:     "धन्यवाद आपने कॉल किया। आपका दिन शुभ हो। नमस्ते!",
	BengaliIndia:   "কল করার জন্য ধন্যবাদ। আপনার দিনটি শুভ হোক। বিদায়!",
	GujaratiIndia:  "કોલ કરવા બદલ આભાર. તમારો દિવસ શુભ રહે. આવજો!",
	KannadaIndia:   "ಕರೆ ಮಾಡಿದ್ದಕ್ಕೆ ಧನ್ಯವಾದಗಳು. ನಿಮ್ಮ ದಿನ ಶುಭವಾಗಿರಲಿ. ವಿದಾಯ!",
	MalayalamIndia: "വിളിച്ചതിന് നന്ദി. നിങ്ങളുടെ ദിവസം ശുഭകരമാകട്ടെ. വിട!",
	MarathiIndia:   "कॉल केल्याबद्दल धन्यवाद. तुमचा दिवस शुभ जावो. नमस्कार!",
	OdiaIndia:      "କଲ୍ କରିଥିବାରୁ ଧନ୍ୟବାଦ। ଆପଣଙ୍କ ଦିନ ଶୁଭ ହେଉ। ବିଦାୟ!",
	PunjabiIndia:   "ਕਾਲ ਕਰਨ ਲਈ ਧੰਨਵਾਦ। ਤੁਹਾਡਾ ਦਿਨ ਸ਼ੁਭ ਹੋਵੇ। ਅਲਵਿਦਾ!",
	TamilIndia:     "அழைத்ததற்கு நன்றி. உங்கள் நாள் இனிதாக அமையட்டும். விடைபெறுகிறேன்!",
	TeluguIndia:    "కాల్ చేసినందుకు ధన్యవాదాలు. మీ రోజు శుభంగా ఉండాలి. వీడ్కోలు!",
}

// switchConfirmations is carried verbatim from the original call handler's
// per-language confirmation table, spoken right after an honored
// language-switch request.
var switchConfirmations = map[Code]string{
	EnglishIndia:   "I will now speak in English. How can I help you?",
	HindiIndia:     "मैं अब हिंदी में बोलूंगी। मैं आपकी कैसे मदद कर सकती हूं?",
	BengaliIndia:   "আমি এখন বাংলায় কথা বলব। আমি আপনাকে কিভাবে সাহায্য করতে পারি?",
	GujaratiIndia:  "હું હવે ગુજરાતીમાં બોલીશ. હું તમારી કેવી રીતે મદદ કરી શકું?",
	KannadaIndia:   "ನಾನು ಈಗ ಕನ್ನಡದಲ್ಲಿ ಮಾತನಾಡುತ್ತೇನೆ. ನಾನು ನಿಮಗೆ ಹೇಗೆ ಸಹಾಯ ಮಾಡಬಹುದು?",
	MalayalamIndia: "ഞാൻ ഇപ്പോൾ മലയാളത്തിൽ സംസാരിക്കും. ഞാൻ നിങ്ങളെ എങ്ങനെ സഹായിക്കും?",
	MarathiIndia:   "मी आता मराठीत बोलेन. मी तुम्हाला कशी मदत करू शकते?",
	OdiaIndia:      "ମୁଁ ବର୍ତ୍ତମାନ ଓଡ଼ିଆରେ କହିବି। ମୁଁ ଆପଣଙ୍କୁ କିପରି ସାହାଯ୍ୟ କରିପାରିବି?",
	PunjabiIndia:   "ਮੈਂ ਹੁਣ ਪੰਜਾਬੀ ਵਿੱਚ ਬੋਲਾਂਗੀ। ਮੈਂ ਤੁਹਾਡੀ ਕਿਵੇਂ ਮਦਦ ਕਰ ਸਕਦੀ ਹਾਂ?",
	TamilIndia:     "நான் இப்போது தமிழில் பேசுவேன். நான் உங்களுக்கு எப்படி உதவ முடியும்?",
	TeluguIndia:    "నేను ఇప్పుడు తెలుగులో మాట్లాడతాను. నేను మీకు ఎలా సహాయం చేయగలను?",
}

// silencePrompts is spoken on the first silence warning (warning_index 1).
// Grounded on the original call handler's _send_silence_warning, whose
// warning_number==1 branch is this "are you there" text.
var silencePrompts = map[Code]string{
	EnglishIndia:   "Are you still there? Please let me know how I can help.",
	HindiIndia:     "क्या आप अभी भी वहाँ हैं? कृपया बताएं मैं कैसे मदद कर सकती हूँ।",
	BengaliIndia:   "আপনি কি এখনও আছেন? অনুগ্রহ করে বলুন আমি কীভাবে সাহায্য করতে পারি।",
	GujaratiIndia:  "શું તમે હજી ત્યાં છો? કૃપા કરી જણાવો હું કેવી રીતે મદદ કરી શકું.",
	KannadaIndia:   "ನೀವು ಇನ್ನೂ ಇದ್ದೀರಾ? ದಯವಿಟ್ಟು ಹೇಳಿ ನಾನು ಹೇಗೆ ಸಹಾಯ ಮಾಡಬಹುದು.",
	MalayalamIndia: "നിങ്ങൾ ഇപ്പോഴും ഉണ്ടോ? ദയവായി പറയൂ ഞാൻ എങ്ങനെ സഹായിക്കാം.",
	MarathiIndia:   "तुम्ही अजूनही आहात का? कृपया सांगा मी कशी मदत करू शकते.",
	OdiaIndia:      "ଆପଣ ଏବେ ବି ଅଛନ୍ତି କି? ଦୟାକରି କୁହନ୍ତୁ ମୁଁ କିପରି ସାହାଯ୍ୟ କରିପାରିବି.",
	PunjabiIndia:   "ਕੀ ਤੁਸੀਂ ਅਜੇ ਵੀ ਉੱਥੇ ਹੋ? ਕਿਰਪਾ ਕਰਕੇ ਦੱਸੋ ਮੈਂ ਕਿਵੇਂ ਮਦਦ ਕਰ ਸਕਦੀ ਹਾਂ।",
	TamilIndia:     "நீங்கள் இன்னும் இருக்கிறீர்களா? நான் எப்படி உதவ முடியும் என்று சொல்லுங்கள்.",
	TeluguIndia:    "మీరు ఇంకా ఉన్నారా? నేను ఎలా సహాయం చేయగలనో దయచేసి చెప్పండి.",
}

// silencePromptsFollowup is spoken on the second and every later silence
// warning (warning_index >= 2) — distinct copy from silencePrompts, matching
// the original call handler's warning_number>1 "I'm waiting for you" branch
// rather than repeating the first warning's text.
var silencePromptsFollowup = map[Code]string{
	EnglishIndia:   "I'm waiting for you. Is there anything else you'd like to say?",
	HindiIndia:     "मैं आपका इंतज़ार कर रही हूँ। क्या आप कुछ और कहना चाहते हैं?",
	BengaliIndia:   "আমি আপনার জন্য অপেক্ষা করছি। আপনি কি আর কিছু বলতে চান?",
	GujaratiIndia:  "હું તમારી રાહ જોઈ રહી છું. શું તમે બીજું કંઈ કહેવા માંગો છો?",
	KannadaIndia:   "ನಾನು ನಿಮಗಾಗಿ ಕಾಯುತ್ತಿದ್ದೇನೆ. ನೀವು ಇನ್ನೇನಾದರೂ ಹೇಳಲು ಬಯಸುತ್ತೀರಾ?",
	MalayalamIndia: "ഞാൻ നിങ്ങൾക്കായി കാത്തിരിക്കുന്നു. നിങ്ങൾക്ക് മറ്റെന്തെങ്കിലും പറയാനുണ്ടോ?",
	MarathiIndia:   "मी तुमची वाट पाहत आहे. तुम्हाला आणखी काही सांगायचे आहे का?",
	OdiaIndia:      "ମୁଁ ଆପଣଙ୍କ ପାଇଁ ଅପେକ୍ଷା କରୁଛି। ଆପଣ ଆଉ କିଛି କହିବାକୁ ଚାହାଁନ୍ତି କି?",
	PunjabiIndia:   "ਮੈਂ ਤੁਹਾਡੀ ਉਡੀਕ ਕਰ ਰਹੀ ਹਾਂ। ਕੀ ਤੁਸੀਂ ਹੋਰ ਕੁਝ ਕਹਿਣਾ ਚਾਹੁੰਦੇ ਹੋ?",
	TamilIndia:     "நான் உங்களுக்காக காத்திருக்கிறேன். நீங்கள் வேறு ஏதாவது சொல்ல விரும்புகிறீர்களா?",
	TeluguIndia:    "నేను మీ కోసం వేచి ఉన్నాను. మీరు మరేదైనా చెప్పాలనుకుంటున్నారా?",
}

// fallbackReplies is used when the LLM adapter is unavailable or fails.
// en-IN and hi-IN carry the original call handler's four-reply lists
// verbatim; the remaining languages get one generic reply each.
var fallbackReplies = map[Code][]string{
	EnglishIndia: {
		"Thank you. What else would you like to know?",
		"I understand. Please continue.",
		"That's interesting. What else?",
		"Okay. What else would you like to say?",
	},
	HindiIndia: {
		"धन्यवाद। आप और क्या जानना चाहते हैं?",
		"मैं समझ गया। कृपया आगे बताएं।",
		"यह दिलचस्प है। और क्या है?",
		"अच्छा। आप और क्या कहना चाहते हैं?",
	},
	BengaliIndia:   {"ধন্যবাদ। আপনি আর কী জানতে চান?"},
	GujaratiIndia:  {"આભાર. તમે બીજું શું જાણવા માંગો છો?"},
	KannadaIndia:   {"ಧನ್ಯವಾದಗಳು. ನೀವು ಇನ್ನೇನು ತಿಳಿಯಲು ಬಯಸುತ್ತೀರಿ?"},
	MalayalamIndia: {"നന്ദി. നിങ്ങൾക്ക് മറ്റെന്താണ് അറിയേണ്ടത്?"},
	MarathiIndia:   {"धन्यवाद. तुम्हाला आणखी काय जाणून घ्यायचे आहे?"},
	OdiaIndia:      {"ଧନ୍ୟବାଦ। ଆପଣ ଆଉ କଣ ଜାଣିବାକୁ ଚାହାଁନ୍ତି?"},
	PunjabiIndia:   {"ਧੰਨਵਾਦ। ਤੁਸੀਂ ਹੋਰ ਕੀ ਜਾਣਨਾ ਚਾਹੁੰਦੇ ਹੋ?"},
	TamilIndia:     {"நன்றி. நீங்கள் இன்னும் என்ன தெரிந்துகொள்ள விரும்புகிறீர்கள்?"},
	TeluguIndia:    {"ధన్యవాదాలు. మీరు ఇంకా ఏమి తెలుసుకోవాలనుకుంటున్నారు?"},
}

// lookup retrieves table[code], falling back to table[EnglishIndia] for an
// unrecognized code — every table above has an EnglishIndia entry.
func lookup(table map[Code]string, code Code) string {
	if s, ok := table[code]; ok {
		return s
	}
	return table[EnglishIndia]
}

// GreetingFor returns the opening line for a call conducted in code.
func GreetingFor(code Code) string { return lookup(greetings, code) }

// FarewellFor returns the closing line for a call conducted in code.
func FarewellFor(code Code) string { return lookup(farewells, code) }

// SwitchConfirmationFor returns the line spoken after an honored
// language-switch request, in the new language.
func SwitchConfirmationFor(code Code) string { return lookup(switchConfirmations, code) }

// SilencePromptFor returns the watchdog's silence-warning prompt: warningIndex
// is the 1-based count of the warning about to be sent (silence_prompt(lang,
// warning_index) per SPEC_FULL §4.4). The first warning uses an "are you
// there" prompt; every later warning uses distinct "I'm waiting for you"
// copy, matching the original call handler's warning_number==1 vs >1 split.
func SilencePromptFor(code Code, warningIndex int) string {
	if warningIndex <= 1 {
		return lookup(silencePrompts, code)
	}
	return lookup(silencePromptsFollowup, code)
}

// FallbackReplies returns canned replies to rotate through when the LLM
// adapter is down, in the conversation's current language.
func FallbackReplies(code Code) []string {
	if r, ok := fallbackReplies[code]; ok {
		return r
	}
	return fallbackReplies[EnglishIndia]
}
