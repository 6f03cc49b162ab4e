package constants

const USER_AGENT = "disparos/1.0 (+https://github.com/Amund211/disparos)"
