package dialogue

import "eino_dialogue/pkg"

// Response templates use {field} placeholders filled by the Renderer
var (
	greetingTemplates = []string{"Hello! How can I assist you today?", "Hi there!", "Hey!"}
	farewellTemplates = []string{"Goodbye! Have a great day!", "Farewell!", "See you later!"}
	thanksTemplates   = []string{"You're welcome!", "Anytime!", "Glad I could help!"}
)

const (
	tplWeather          = "In {location}, it's {temp}°C with {conditions}."
	tplWeatherSimulated = "In {location}, it's {temp}°C with {conditions} (simulated reading, the weather service is unavailable right now)."
	tplWeatherNoPlace   = "Which city would you like the weather for?"

	tplProductInfo = "We have a range of {product_type}. Do you want details on something specific?"

	tplScheduleConfirm  = "Scheduled on {date} at {time}. Confirm?"
	tplScheduleConflict = "You already have an appointment on {date} at {time}. What other time works for you?"
	tplConfirmReprompt  = "Please answer yes or no: should I schedule it on {date} at {time}?"
	tplConfirmed        = "Done! Your appointment on {date} at {time} is confirmed. Calendar reference: {reference}."
	tplCalendarFailed   = "Your appointment on {date} at {time} is recorded, but I couldn't add it to your calendar."
	tplConfirmDeclined  = "Okay, I won't schedule it. Let me know if you need anything else."
	tplSlotFillDropped  = "Okay, I've cancelled that request."

	tplYes = "Great! Proceeding."
	tplNo  = "No worries. Let me know if you need anything."

	tplOrderStatus   = "Order #{order_number} is {status}. Expected on {delivery_date}."
	tplOrderNotFound = "I couldn't find that order. Can you double-check the number?"
	tplOrderNoNumber = "Could you give me your order number?"

	tplPricing          = "The price for {product} is ${price}. Want more info?"
	tplPricingClarify   = "Which product would you like a price for? We carry {products}."
	tplHelp             = "I can assist with {issue}. Could you elaborate?"
	tplUserName         = "Your name is {name}."
	tplUserNameUnknown  = "I don't know your name yet. You can tell me by saying \"my name is ...\"."
	tplNews             = "Top headlines:\n{news_list}"
	tplUnknown          = "I'm not sure I understand. Could you rephrase that?"
	tplDefaultHelpIssue = "your issue"
)

// slotPrompts ask for one missing slot
var slotPrompts = map[pkg.EntityKey]string{
	pkg.EntityDate: "What date would you like to schedule it for?",
	pkg.EntityTime: "What time works for you on {date}?",
}
