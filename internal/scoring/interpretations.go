package scoring

var interpretations = map[string]map[Band]string{
	"leadership": {
		Expert:       "You are an expert leader with exceptional skills.",
		Proficient:   "You have strong leadership abilities.",
		Intermediate: "You are developing solid leadership skills.",
		Beginner:     "You are beginning to explore leadership.",
		Novice:       "You have opportunities to develop leadership skills.",
	},
	"communication": {
		Expert:       "You excel in conveying ideas clearly and effectively.",
		Proficient:   "You communicate your thoughts well and engage others effectively.",
		Intermediate: "You communicate adequately but have room for improvement.",
		Beginner:     "You are starting to develop your communication skills.",
		Novice:       "You may find it challenging to express your ideas clearly.",
	},
	"problem-solving": {
		Expert:       "You consistently find innovative and effective solutions to complex problems.",
		Proficient:   "You effectively solve problems and think critically.",
		Intermediate: "You are capable of solving problems with some guidance.",
		Beginner:     "You are developing your problem-solving abilities.",
		Novice:       "You may struggle with solving problems and need support.",
	},
	"creativity": {
		Expert:       "You consistently generate original and impactful ideas.",
		Proficient:   "You often think creatively and bring fresh perspectives.",
		Intermediate: "You demonstrate creativity but can enhance it further.",
		Beginner:     "You are beginning to explore your creative potential.",
		Novice:       "You may find it challenging to think creatively.",
	},
	"adaptability": {
		Expert:       "You easily adapt to changing situations and thrive in dynamic environments.",
		Proficient:   "You handle change well and adjust your approach as needed.",
		Intermediate: "You can adapt to change with some effort.",
		Beginner:     "You are developing your ability to adapt to new situations.",
		Novice:       "You may find it difficult to adjust to changes.",
	},
	"collaboration": {
		Expert:       "You excel at working with others to achieve common goals.",
		Proficient:   "You effectively collaborate and contribute to team success.",
		Intermediate: "You work well in teams but can enhance your collaboration skills.",
		Beginner:     "You are starting to develop your teamwork abilities.",
		Novice:       "You may find it challenging to work collaboratively.",
	},
	"emotional-intelligence": {
		Expert:       "You have a high level of emotional intelligence and understand both your own and others' emotions.",
		Proficient:   "You effectively manage your emotions and empathize with others.",
		Intermediate: "You are developing your emotional intelligence and awareness.",
		Beginner:     "You are beginning to recognize and understand emotions in yourself and others.",
		Novice:       "You may struggle with managing emotions and empathizing with others.",
	},
	"strategic-thinking": {
		Expert:       "You consistently think strategically and make decisions that align with long-term goals.",
		Proficient:   "You effectively plan and consider long-term outcomes in your decisions.",
		Intermediate: "You demonstrate strategic thinking but can improve in aligning actions with goals.",
		Beginner:     "You are developing your strategic thinking abilities.",
		Novice:       "You may find it challenging to think strategically and align actions with goals.",
	},
}

// Interpret returns the descriptive text for a domain at a band.
func Interpret(domainName string, band Band) string {
	if byBand, ok := interpretations[domainName]; ok {
		if text, ok := byBand[band]; ok {
			return text
		}
	}
	return "No interpretation available."
}
