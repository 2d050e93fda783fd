// Package i18n provides localized message templates and language detection
// for the conversation engine.
package i18n

import (
	"log/slog"
	"strconv"
	"strings"
)

// Supported locales.
const (
	LangEnglish = "en"
	LangSpanish = "es"
)

// RetryVariants is the number of rotating phrasings per retry prompt. Retry
// templates are keyed baseKey1..baseKeyN and selected by attempt count so the
// assistant does not repeat itself verbatim.
const RetryVariants = 3

// catalog maps message key -> locale -> template. Placeholders use {name}
// syntax and are substituted by straight string replacement, not a
// templating engine: callers must substitute every placeholder present in
// the chosen template or leave literal braces in the output.
var catalog = map[string]map[string]string{
	"greeting": {
		LangEnglish: "Hi! 👋 I can help you book an appointment or answer questions about our plans. What can I do for you?",
		LangSpanish: "¡Hola! 👋 Puedo ayudarte a agendar una cita o responder preguntas sobre nuestros planes. ¿En qué te puedo ayudar?",
	},
	"stateRecovery": {
		LangEnglish: "Sorry, I lost you for a second. Let's pick it up from here — would you like to book an appointment or ask a question?",
		LangSpanish: "Perdón, me perdí un segundo. Retomemos desde aquí: ¿quieres agendar una cita o hacer una pregunta?",
	},
	"guardRailOffTopic": {
		LangEnglish: "I can only help with appointments, our plans, and payments. Is there anything like that I can do for you?",
		LangSpanish: "Solo puedo ayudarte con citas, nuestros planes y pagos. ¿Hay algo de eso en lo que te pueda ayudar?",
	},
	"guardRailHarmful": {
		LangEnglish: "I can't help with that. If you'd like, I can help you book an appointment or answer questions about our services.",
		LangSpanish: "No puedo ayudarte con eso. Si quieres, puedo ayudarte a agendar una cita o responder preguntas sobre nuestros servicios.",
	},
	"pricingAnswer": {
		LangEnglish: "Our plans start at $99.00 per month and include unlimited consultations. Want me to send you a payment link or book a visit?",
		LangSpanish: "Nuestros planes comienzan en $99.00 al mes e incluyen consultas ilimitadas. ¿Quieres que te envíe un link de pago o que agendemos una visita?",
	},
	"specsAnswer": {
		LangEnglish: "Every plan includes our full feature set — happy to go over the details. Would you like to schedule a walkthrough?",
		LangSpanish: "Todos los planes incluyen el conjunto completo de funciones; con gusto te doy los detalles. ¿Quieres agendar una demostración?",
	},
	"companyAnswer": {
		LangEnglish: "We've been helping teams like yours since 2018, with offices in Austin and Mexico City. Anything else you'd like to know?",
		LangSpanish: "Ayudamos a equipos como el tuyo desde 2018, con oficinas en Austin y Ciudad de México. ¿Algo más que quieras saber?",
	},
	"questionAnswer": {
		LangEnglish: "Good question! Let me note that down. Meanwhile, would you like to book an appointment?",
		LangSpanish: "¡Buena pregunta! Déjame anotarla. Mientras tanto, ¿quieres agendar una cita?",
	},
	"askName": {
		LangEnglish: "Great, let's get you booked. What's your full name?",
		LangSpanish: "Perfecto, vamos a agendarte. ¿Cuál es tu nombre completo?",
	},
	"nameRetry1": {
		LangEnglish: "That doesn't look like a name. Could you type your full name?",
		LangSpanish: "Eso no parece un nombre. ¿Podrías escribir tu nombre completo?",
	},
	"nameRetry2": {
		LangEnglish: "I still need your name to continue — for example, \"Jane Doe\".",
		LangSpanish: "Aún necesito tu nombre para continuar; por ejemplo, \"Juana Pérez\".",
	},
	"nameRetry3": {
		LangEnglish: "One more try: please send just your first and last name.",
		LangSpanish: "Un intento más: envíame solo tu nombre y apellido.",
	},
	"askEmail": {
		LangEnglish: "Thanks {name}! What's your email address?",
		LangSpanish: "¡Gracias {name}! ¿Cuál es tu correo electrónico?",
	},
	"emailRetry1": {
		LangEnglish: "Hmm, that email doesn't look right. Could you check it and send it again?",
		LangSpanish: "Mmm, ese correo no se ve bien. ¿Puedes revisarlo y enviarlo de nuevo?",
	},
	"emailRetry2": {
		LangEnglish: "I need a valid email like name@example.com to continue.",
		LangSpanish: "Necesito un correo válido como nombre@ejemplo.com para continuar.",
	},
	"emailRetry3": {
		LangEnglish: "Let's try the email one more time — just the address, nothing else.",
		LangSpanish: "Intentemos el correo una vez más: solo la dirección, nada más.",
	},
	"askPhone": {
		LangEnglish: "Almost there. What's a good phone number for you? You can say \"skip\" if you'd rather not share it.",
		LangSpanish: "Ya casi. ¿Cuál es un buen teléfono para contactarte? Puedes decir \"omitir\" si prefieres no compartirlo.",
	},
	"phoneRetry1": {
		LangEnglish: "That phone number doesn't look complete. Could you send it again?",
		LangSpanish: "Ese número no parece completo. ¿Puedes enviarlo otra vez?",
	},
	"phoneRetry2": {
		LangEnglish: "I need at least 7 digits for the phone number, or say \"skip\".",
		LangSpanish: "Necesito al menos 7 dígitos para el teléfono, o di \"omitir\".",
	},
	"phoneRetry3": {
		LangEnglish: "Last try for the phone — digits only, or \"skip\" to move on.",
		LangSpanish: "Último intento para el teléfono: solo dígitos, u \"omitir\" para continuar.",
	},
	"phoneDeclinedOk": {
		LangEnglish: "No problem, we'll skip the phone number.",
		LangSpanish: "Sin problema, omitimos el teléfono.",
	},
	"slotsHeader": {
		LangEnglish: "Here are the available times:\n{slots}\nReply with the number of the slot you'd like.",
		LangSpanish: "Estos son los horarios disponibles:\n{slots}\nResponde con el número del horario que prefieras.",
	},
	"slotsNextWeek": {
		LangEnglish: "Sure — here's the following week:\n{slots}\nReply with the number of the slot you'd like.",
		LangSpanish: "Claro, aquí está la siguiente semana:\n{slots}\nResponde con el número del horario que prefieras.",
	},
	"slotRetry": {
		LangEnglish: "I didn't catch that. Reply with the number of one of the slots above, or say \"next week\".",
		LangSpanish: "No entendí. Responde con el número de uno de los horarios de arriba, o di \"siguiente semana\".",
	},
	"confirmSummary": {
		LangEnglish: "Perfect, {name}. To confirm: {slot}. Shall I book it? (yes/no)",
		LangSpanish: "Perfecto, {name}. Para confirmar: {slot}. ¿Lo agendo? (sí/no)",
	},
	"appointmentConfirmed": {
		LangEnglish: "🎉 You're booked for {slot}. We'll send a reminder to {email}. Anything else I can help with?",
		LangSpanish: "🎉 Quedaste agendado para {slot}. Enviaremos un recordatorio a {email}. ¿Algo más en lo que pueda ayudar?",
	},
	"completedThanks": {
		LangEnglish: "You're all set! Let me know if you need anything else.",
		LangSpanish: "¡Todo listo! Avísame si necesitas algo más.",
	},
	"paymentNoProducts": {
		LangEnglish: "I'm sorry, there are no products available for purchase right now.",
		LangSpanish: "Lo siento, no hay productos disponibles para compra en este momento.",
	},
	"paymentSelectProduct": {
		LangEnglish: "Sure! Which product would you like a payment link for?\n{products}\nReply with the number or the name.",
		LangSpanish: "¡Claro! ¿Para qué producto quieres el link de pago?\n{products}\nResponde con el número o el nombre.",
	},
	"paymentProductRetry": {
		LangEnglish: "I couldn't find that product. Reply with the number or name from the list:\n{products}",
		LangSpanish: "No encontré ese producto. Responde con el número o el nombre de la lista:\n{products}",
	},
	"paymentAskName": {
		LangEnglish: "Got it: {product} for {amount}. What name should go on the payment?",
		LangSpanish: "Anotado: {product} por {amount}. ¿A nombre de quién va el pago?",
	},
	"paymentNameRetry1": {
		LangEnglish: "That doesn't look like a name — what name should I put on the payment?",
		LangSpanish: "Eso no parece un nombre. ¿Qué nombre pongo en el pago?",
	},
	"paymentNameRetry2": {
		LangEnglish: "I need the payer's name (at least two characters, not a number).",
		LangSpanish: "Necesito el nombre del pagador (mínimo dos caracteres, no un número).",
	},
	"paymentNameRetry3": {
		LangEnglish: "Please send just the payer's full name.",
		LangSpanish: "Envíame solo el nombre completo del pagador.",
	},
	"paymentAskEmail": {
		LangEnglish: "Thanks, {name}. What email should receive the payment link?",
		LangSpanish: "Gracias, {name}. ¿A qué correo envío el link de pago?",
	},
	"paymentEmailRetry1": {
		LangEnglish: "That email doesn't look valid. Could you send it again?",
		LangSpanish: "Ese correo no parece válido. ¿Lo envías de nuevo?",
	},
	"paymentEmailRetry2": {
		LangEnglish: "I need a valid email like name@example.com for the payment link.",
		LangSpanish: "Necesito un correo válido como nombre@ejemplo.com para el link de pago.",
	},
	"paymentEmailRetry3": {
		LangEnglish: "One more time — just the email address for the payment link.",
		LangSpanish: "Una vez más: solo el correo para el link de pago.",
	},
	"paymentSummary": {
		LangEnglish: "Here's the summary:\n• {product} — {amount}\n• Name: {name}\n• Email: {email}\nShall I generate the payment link? (yes/no)",
		LangSpanish: "Este es el resumen:\n• {product} — {amount}\n• Nombre: {name}\n• Correo: {email}\n¿Genero el link de pago? (sí/no)",
	},
	"paymentLinkReady": {
		LangEnglish: "✅ Here's your payment link for {product} ({amount}):\n{url}",
		LangSpanish: "✅ Aquí está tu link de pago para {product} ({amount}):\n{url}",
	},
	"paymentLinkExisting": {
		LangEnglish: "You already have a payment link for {product} ({amount}) — here it is again:\n{url}",
		LangSpanish: "Ya tienes un link de pago para {product} ({amount}); aquí está de nuevo:\n{url}",
	},
	"paymentRetryLater": {
		LangEnglish: "Sorry, I couldn't generate the payment link right now. Please try again in a few minutes — your details are saved.",
		LangSpanish: "Lo siento, no pude generar el link de pago en este momento. Intenta de nuevo en unos minutos; tus datos quedaron guardados.",
	},
	"paymentNewLinkPrompt": {
		LangEnglish: "You already have a link for {product} ({amount}):\n{url}\nDo you want me to create a new one instead? (yes/no)",
		LangSpanish: "Ya tienes un link para {product} ({amount}):\n{url}\n¿Quieres que cree uno nuevo? (sí/no)",
	},
	"paymentKeepExisting": {
		LangEnglish: "Okay, keeping your existing link:\n{url}",
		LangSpanish: "De acuerdo, conservamos tu link actual:\n{url}",
	},
	"paymentHistoryHeader": {
		LangEnglish: "Your payment links:\n{links}",
		LangSpanish: "Tus links de pago:\n{links}",
	},
	"paymentHistoryMore": {
		LangEnglish: "Say \"more\" to see older links, or anything else to go back.",
		LangSpanish: "Di \"más\" para ver links anteriores, o cualquier otra cosa para volver.",
	},
	"paymentHistoryEmpty": {
		LangEnglish: "You don't have any payment links yet. Say \"payment link\" whenever you'd like one.",
		LangSpanish: "Aún no tienes links de pago. Di \"link de pago\" cuando quieras uno.",
	},
	"yesNoRetry": {
		LangEnglish: "Sorry, I just need a yes or a no here.",
		LangSpanish: "Perdón, aquí solo necesito un sí o un no.",
	},
}

// Lookup returns the raw template for a key in the given locale, falling
// back to English and then to an empty string for unknown keys.
func Lookup(lang, key string) string {
	templates, ok := catalog[key]
	if !ok {
		slog.Warn("i18n.Lookup: unknown message key", "key", key, "lang", lang)
		return ""
	}
	if tmpl, ok := templates[lang]; ok {
		return tmpl
	}
	return templates[LangEnglish]
}

// Render looks up a template and substitutes every {placeholder} present in
// vars by straight string replacement. Placeholders without a value stay as
// literal braces in the output.
func Render(lang, key string, vars map[string]string) string {
	out := Lookup(lang, key)
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// RenderRetry renders a rotating retry prompt: attempt 1 picks the first
// variant, attempt 2 the second, and so on, cycling through RetryVariants.
func RenderRetry(lang, baseKey string, attempt int, vars map[string]string) string {
	if attempt < 1 {
		attempt = 1
	}
	variant := (attempt-1)%RetryVariants + 1
	return Render(lang, baseKey+strconv.Itoa(variant), vars)
}
