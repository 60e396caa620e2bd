package dialogue

import "eino_dialogue/pkg"

// successors lists the intents that naturally follow each intent
var successors = map[pkg.Intent][]pkg.Intent{
	pkg.IntentGreeting: {
		pkg.IntentWeather, pkg.IntentProductInfo, pkg.IntentScheduling, pkg.IntentOrderStatus,
		pkg.IntentHelp, pkg.IntentGetUserInfo, pkg.IntentNews, pkg.IntentThanks, pkg.IntentFarewell,
	},
	pkg.IntentFarewell: {pkg.IntentGreeting},
	pkg.IntentThanks:   {pkg.IntentFarewell, pkg.IntentGreeting, pkg.IntentHelp, pkg.IntentYes, pkg.IntentNo},
	pkg.IntentWeather: {
		pkg.IntentWeather, pkg.IntentScheduling, pkg.IntentNews, pkg.IntentThanks, pkg.IntentFarewell,
	},
	pkg.IntentProductInfo: {
		pkg.IntentProductInfo, pkg.IntentPricing, pkg.IntentOrderStatus, pkg.IntentThanks, pkg.IntentFarewell,
	},
	pkg.IntentScheduling: {
		pkg.IntentScheduling, pkg.IntentYes, pkg.IntentNo, pkg.IntentThanks, pkg.IntentFarewell,
	},
	pkg.IntentYes:         {pkg.IntentThanks, pkg.IntentFarewell, pkg.IntentScheduling, pkg.IntentHelp},
	pkg.IntentNo:          {pkg.IntentHelp, pkg.IntentThanks, pkg.IntentFarewell},
	pkg.IntentOrderStatus: {pkg.IntentOrderStatus, pkg.IntentHelp, pkg.IntentThanks, pkg.IntentFarewell},
	pkg.IntentHelp: {
		pkg.IntentWeather, pkg.IntentProductInfo, pkg.IntentScheduling, pkg.IntentOrderStatus,
		pkg.IntentPricing, pkg.IntentGetUserInfo, pkg.IntentNews,
	},
	pkg.IntentPricing: {
		pkg.IntentPricing, pkg.IntentProductInfo, pkg.IntentOrderStatus, pkg.IntentScheduling,
		pkg.IntentThanks, pkg.IntentFarewell,
	},
	pkg.IntentGetUserInfo: {pkg.IntentGreeting, pkg.IntentHelp, pkg.IntentThanks},
	pkg.IntentNews:        {pkg.IntentNews, pkg.IntentWeather, pkg.IntentThanks, pkg.IntentFarewell},
}

// transitionPhrases are prepended when a turn changes topic abruptly
var transitionPhrases = map[pkg.Intent]string{
	pkg.IntentGreeting:    "Oh, hello again! ",
	pkg.IntentFarewell:    "Leaving already? ",
	pkg.IntentThanks:      "My pleasure. ",
	pkg.IntentWeather:     "Switching to the weather. ",
	pkg.IntentProductInfo: "Let's look at our products. ",
	pkg.IntentScheduling:  "Let's get that scheduled. ",
	pkg.IntentYes:         "Noted. ",
	pkg.IntentNo:          "Understood. ",
	pkg.IntentOrderStatus: "Let me check on that order. ",
	pkg.IntentHelp:        "Happy to help. ",
	pkg.IntentPricing:     "Changing topics to pricing. ",
	pkg.IntentGetUserInfo: "About you: ",
	pkg.IntentNews:        "On to the news. ",
}

// IsPlausible reports whether current is a natural follow-on to previous. With no previous
// turn, or after an unknown one, any intent is plausible.
func IsPlausible(previous, current pkg.Intent) bool {
	if previous == "" || previous == pkg.IntentUnknown {
		return true
	}
	for _, next := range successors[previous] {
		if next == current {
			return true
		}
	}
	return false
}

// TransitionPhrase returns the prefix for an implausible move into intent, or "" for unknown
func TransitionPhrase(intent pkg.Intent) string {
	return transitionPhrases[intent]
}
