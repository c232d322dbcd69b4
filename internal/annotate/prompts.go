package annotate

const verdictScales = `Judge the truth of the claim, its bias and its potential harm. Cite every source you rely on.

Accepted truth values: "Certainly False", "Somewhat False", "Neutral/Ambiguous", "Somewhat True", "Certainly True".
Accepted bias values: "Strongly Left", "Leaning Left", "Neutral", "Leaning Right", "Strongly Right".
Accepted harm values: "Extremely harmful to [groups harmed]", "Harmful to [groups harmed]", "Somewhat Harmful to [groups harmed]", "Slightly Harmful to [groups harmed]", "Harmful to no groups". Replace [groups harmed] with the groups concerned.`

const jsonPrompt = `You will be given a single claim. ` + verdictScales + `

Respond with a JSON object of the form {"truth": "...", "bias": "...", "harm": "...", "decision": "...", "sources": ["..."]} where decision is a short paragraph explaining your verdict.`

const textPrompt = `You will be given a single claim. ` + verdictScales + `

Answer with the truth value on the first line, the harm value on the second line, and then a short paragraph explaining your decision with its sources.`
