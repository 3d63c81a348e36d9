package content

// Prediction is one card read out by the fortune teller
type Prediction struct {
	Category   string `json:"category"`
	Prediction string `json:"prediction"`
	Stars      int    `json:"stars"`
}

var predictions = []Prediction{
	{
		Category:   "Griha Pravesh 🏠",
		Prediction: "Pehle 6 mahine toh dono ek doosre ke saath adjust karenge... AC ka temperature biggest issue hoga. Manoj chahega 18°C, Pooja bolegi 24°C. Compromise hoga 21°C pe, but secretly dono raat ko apne taraf set karenge. 😤❄️",
		Stars:      4,
	},
	{
		Category:   "Financial Yoga 💰",
		Prediction: "Joint account khulega, lekin secret Swiggy expenses chhupane ke liye dono ke paas ek 'emergency fund' bhi hoga. Pooja ka emergency = shoes. Manoj ka emergency = gadgets. Pandit ji kehte hain, sab theek hai, budget banana band karo. 🛍️",
		Stars:      3,
	},
	{
		Category:   "Travel Dasha ✈️",
		Prediction: "2026 mein ek international trip pakka hai. Manoj bolega Bali, Pooja bolegi Switzerland. Final destination hoga... Goa. Kyunki last minute mein sab plans wahi jaate hain. Stars confirm karte hain, India se bahar jaana mushkil hai. 🏖️",
		Stars:      5,
	},
	{
		Category:   "Kitchen Graha 🍳",
		Prediction: "Cooking duties ka rotation banega, par actually Zomato aur Swiggy dono ke saath long-term relationship chal raha hai. Ek din Manoj Maggi banayega aur act karega jaise Gordon Ramsay hai. Pooja politely khaayegi aur secretly bread order karegi. 🍝",
		Stars:      3,
	},
	{
		Category:   "Argument Retrograde 🌀",
		Prediction: "Monthly ek chhota sa fight hoga. Reason: 'Tune meri baat suni hi nahi.' Duration: exactly 4.5 hours. Resolution: 'Chal kuch khaate hain.' Repeat cycle har mahine. Saturn kehta hai yeh pattern 50 saal chalega. 💕",
		Stars:      4,
	},
	{
		Category:   "Baby Nakshatra 👶",
		Prediction: "Abhi nahi abhi nahi... par jab bhi hoga, Manoj strict parent banne ki koshish karega aur 2 minute mein pighal jaayega. Pooja actually strict hogi but sabko lagega Manoj strict hai. Classic parent switcheroo. 😂",
		Stars:      5,
	},
	{
		Category:   "Social Media Rahu 📱",
		Prediction: "Instagram pe couple goals post karenge, but real life mein ek dusre ki stories skip karenge. Manoj ka screen time: 6 hours. Pooja bolegi 'phone rakh', while her own screen time is 7 hours. Irony, thy name is marriage. 📵",
		Stars:      3,
	},
}

// Predictions returns the fortune cards in reading order
func Predictions() []Prediction {
	out := make([]Prediction, len(predictions))
	copy(out, predictions)
	return out
}
