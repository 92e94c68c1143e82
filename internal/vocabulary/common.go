package vocabulary

import "strings"

// commonWords is a broad frequency list of everyday English words used to
// tell readable text from OCR noise.
var commonWords = toSet(strings.Fields(`
able about above across act action actually add after again against age ago agree air all allow almost
alone along already also although always among amount animal another answer any appear apply area
around arrive art ask away back bad base basic bear beat beautiful because become bed before begin
behind believe below best better between big bird black blood blue board boat body bone book both
bottom box boy break bright bring brother brown build burn busy buy call came can car care carry case
cat catch cause center certain chair chance change chapter character charge check child children
choose circle city class clean clear climb close cloud cold color come common compare complete
contain continue control cook cool copy corner correct cost could count country course cover cross
cry cut dark day dead deal dear decide deep degree depend describe desert design detail develop did
differ different difficult direct discuss distance divide doctor does dog dollar done door double down
draw dream dress drink drive drop dry during each ear early earth east easy eat edge effect egg eight
either else end enemy enough enter equal even evening event ever every exact example except excite
exercise exist expect experience explain express eye face fact fall family far farm fast father fear
feel feet few field fight figure fill final find fine finger finish fire first fish five flat floor
flow flower fly follow food foot for forest form forward found four free fresh friend from front fruit
full fun game garden gather gave general get girl give glass go good got govern grand grass great
green ground group grow guess guide hair half hand happen happy hard has hat have head hear heard
heart heat heavy held help her here high hill him his history hit hold hole home hope horse hot hour
house how huge human hundred hunt idea important inch include increase indicate industry instead
interest iron island just keep kept key kind king know known lady lake land language large last late
laugh law lay lead learn least leave left leg length less lesson let letter level lie life lift
light like line list listen little live long look lost lot loud love low machine made main make man
many map mark market material may mean measure meet member method middle might mile milk million mind
minute miss mix mixing modern moment money month moon more morning most mother motion mountain mouth
move much music must name nation natural nature near necessary need never new next night nine noise
none north note nothing notice noun now number object observe ocean offer office often oil old once
one only open order other our out outside over own page paint pair paper part party pass past path
pattern people perhaps period person pick picture piece place plain plan plant play please point
poor position possible pound power practice prepare present press pretty print probable problem
process produce product property protect prove provide pull push put question quick quiet quite race
rain raise range rather reach read ready real reason receive record red region remember repeat reply
represent rest result return rich ride right ring rise river road rock roll room root rope round row
rule run safe said sail salt same sand save saw say scale school science sea season seat second see
seed seem select self sell send sense sentence separate serve set settle seven several shall shape
share sharp she ship shoe shop short should shoulder shout show side sight sign silent simple since
sing single sister sit six size skill skin sky sleep slow small smell smile snow soft soil some
something son song soon sound south space speak special speed spell spend spread spring square stand
star start state station stay steel step stick still stone stop store story straight strange stream
street stretch strong student study subject substance such sudden sugar suggest summer sun supply
support sure surface surprise system table tail take talk tall teach team teeth tell ten term test
than thank that the their them then there these they thick thin thing think third this those though
thought thousand three through throw thus tie time tiny together told tone too took tool top total
touch toward town track trade train travel tree trip trouble true try turn two type under unit until
upon use usual valley value various very view village visit voice vowel wait walk wall want war warm
was wash watch water wave way wear weather week weight well went were west what wheel when where
whether which while white who whole why wide wife wild will win wind window winter wish with without
woman wonder wood word work world would write wrong yard year yellow yes yet you young
exists external internal mixing moving movement particles shows called known used using makes
`)...)

// IsCommonWord reports whether word is in the everyday English frequency set.
func IsCommonWord(word string) bool {
	w := strings.ToLower(word)
	if _, ok := commonWords[w]; ok {
		return true
	}
	if _, ok := commonWords[Stem(w)]; ok {
		return true
	}
	for _, suffix := range []string{"ing", "ed", "ly", "er"} {
		if len(w) > len(suffix)+2 && strings.HasSuffix(w, suffix) {
			if _, ok := commonWords[strings.TrimSuffix(w, suffix)]; ok {
				return true
			}
		}
	}
	return false
}
