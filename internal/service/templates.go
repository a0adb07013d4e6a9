package service

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultTemplate is used when a send request names no template.
const DefaultTemplate = "ps4_primary"

type DeliveryData struct {
	Game     string
	Login    string
	Password string
	Code     string
	Customer string
}

func DeliverySubject(orderCode, game string) string {
	return fmt.Sprintf("[Zion] Delivery of %s - #%s", orDash(game), orDash(orderCode))
}

const primaryBody = `Game: {{.Game}}

Please follow every instruction and warning below carefully.

INSTALLATION:

1. Turn on the {{.Console}} and on the home screen pick "New User";
2. Select "Create a User" (careful not to pick the wrong option);
3. Accept the terms and continue;
4. Choose "Sign In Manually";
5. Fill in the login fields with the data below and sign in:

Login: {{.Login}}
Password: {{.Password}}

6. Enter the verification code below when asked:

Code: {{.Code}}

7. Select "Switch to this {{.Console}}" if offered (otherwise it switched automatically);
8. Confirm with "OK";
9. Once signed in, open Library > Purchased and download the game;
10. After the download starts, switch back to your own user;
11. Wait for the download to finish and play from your own account.

------------------------------------------------------------
IMPORTANT:
1. CHANGING ANY ACCOUNT DATA WILL FORFEIT ACCESS TO THE GAME;
2. THE ACCOUNT IS FOR USE ON EXACTLY ONE (1) CONSOLE;
3. IF YOU NEED TO FACTORY-RESET THE CONSOLE, CONTACT US FIRST FOR THE CORRECT REMOVAL PROCEDURE;
4. WE ARE NOT LIABLE FOR CHANGES TO SONY'S ACCOUNT ACTIVATION TERMS.

------------------------------------------------------------
For any question or support, reach us on WhatsApp.
Thank you for your trust!
ZION GAMES team
`

const secondaryBody = `Game: {{.Game}}

Your secondary-licence activation data:

Login: {{.Login}}
Password: {{.Password}}
Activation code: {{.Code}}

Sign in with the account above on your {{.Console}}, activate it as your
primary console and download the game from Library > Purchased. Play
from your own account afterwards.

------------------------------------------------------------
IMPORTANT:
1. CHANGING ANY ACCOUNT DATA WILL FORFEIT ACCESS TO THE GAME;
2. THE ACCOUNT IS FOR USE ON EXACTLY ONE (1) CONSOLE.

------------------------------------------------------------
For any question or support, reach us on WhatsApp.
Thank you for your trust!
ZION GAMES team
`

type deliveryTemplate struct {
	console string
	body    *template.Template
}

var deliveryTemplates = map[string]deliveryTemplate{
	"ps4_primary":   {console: "PlayStation 4", body: template.Must(template.New("ps4_primary").Parse(primaryBody))},
	"ps5_primary":   {console: "PlayStation 5", body: template.Must(template.New("ps5_primary").Parse(primaryBody))},
	"ps4_secondary": {console: "PlayStation 4", body: template.Must(template.New("ps4_secondary").Parse(secondaryBody))},
	"ps5_secondary": {console: "PlayStation 5", body: template.Must(template.New("ps5_secondary").Parse(secondaryBody))},
}

func RenderDeliveryTemplate(kind string, data *DeliveryData) (string, error) {
	tmpl, ok := deliveryTemplates[kind]
	if !ok {
		return "", fmt.Errorf("template %q not found", kind)
	}

	var b strings.Builder
	err := tmpl.body.Execute(&b, struct {
		Game, Login, Password, Code, Customer, Console string
	}{
		Game:     orDash(data.Game),
		Login:    orDash(data.Login),
		Password: orDash(data.Password),
		Code:     orDash(data.Code),
		Customer: data.Customer,
		Console:  tmpl.console,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
