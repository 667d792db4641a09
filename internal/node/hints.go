package node

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rileyhilliard/btcdash/internal/util"
)

// KnownMethods are the RPC names offered when a command isn't recognised.
var KnownMethods = []string{
	"abandontransaction", "abortrescan", "addmultisigaddress", "addnode", "analyzepsbt",
	"backupwallet", "bumpfee", "clearbanned", "combinepsbt", "createmultisig",
	"createpsbt", "createrawtransaction", "createwallet", "decodepsbt", "decoderawtransaction",
	"decodescript", "deriveaddresses", "disconnectnode", "dumpprivkey", "dumpwallet",
	"encryptwallet", "estimatesmartfee", "finalizepsbt", "fundrawtransaction", "generatetoaddress",
	"getaddednodeinfo", "getaddressesbylabel", "getaddressinfo", "getbalance", "getbalances",
	"getbestblockhash", "getblock", "getblockchaininfo", "getblockcount", "getblockfilter",
	"getblockhash", "getblockheader", "getblockstats", "getblocktemplate", "getchaintips",
	"getchaintxstats", "getconnectioncount", "getdescriptorinfo", "getdifficulty", "getindexinfo",
	"getmemoryinfo", "getmempoolancestors", "getmempooldescendants", "getmempoolentry", "getmempoolinfo",
	"getmininginfo", "getnettotals", "getnetworkhashps", "getnetworkinfo", "getnewaddress",
	"getnodeaddresses", "getpeerinfo", "getrawchangeaddress", "getrawmempool", "getrawtransaction",
	"getreceivedbyaddress", "getreceivedbylabel", "getrpcinfo", "gettransaction", "gettxout",
	"gettxoutproof", "gettxoutsetinfo", "getunconfirmedbalance", "getwalletinfo", "getzmqnotifications",
	"help", "importaddress", "importdescriptors", "importmulti", "importprivkey",
	"importpubkey", "keypoolrefill", "listaddressgroupings", "listbanned", "listdescriptors",
	"listlabels", "listlockunspent", "listreceivedbyaddress", "listreceivedbylabel", "listsinceblock",
	"listtransactions", "listunspent", "listwalletdir", "listwallets", "loadwallet",
	"lockunspent", "logging", "ping", "preciousblock", "pruneblockchain",
	"psbtbumpfee", "rescanblockchain", "savemempool", "scantxoutset", "send",
	"sendmany", "sendrawtransaction", "sendtoaddress", "setban", "setlabel",
	"setnetworkactive", "settxfee", "signmessage", "signmessagewithprivkey", "signrawtransactionwithkey",
	"signrawtransactionwithwallet", "stop", "submitblock", "testmempoolaccept", "unloadwallet",
	"uptime", "utxoupdatepsbt", "validateaddress", "verifychain", "verifymessage",
	"verifytxoutproof", "walletcreatefundedpsbt", "walletlock", "walletpassphrase", "walletprocesspsbt",
}

var rpcErrorCode = regexp.MustCompile(`error code: (-?\d+)`)

// Hint returns a one-line suggestion for well-known failures, or "".
// method is the RPC name the operator typed, used for "did you mean".
func Hint(method string, o Outcome) string {
	switch o.Kind {
	case SpawnFailed:
		reason := strings.ToLower(o.Reason)
		if strings.Contains(reason, "executable file not found") ||
			strings.Contains(reason, "no such file") ||
			strings.Contains(reason, "not found on") {
			return "bitcoin-cli wasn't found. Set node.binary to its full path."
		}
		if strings.Contains(reason, "permission denied") {
			return "bitcoin-cli isn't executable by this user."
		}
		return ""
	case TimedOut:
		return "The node didn't answer in time. It may be busy; poll.timeout controls the limit."
	case ParseFailed:
		return "Status output wasn't understood. Check node.poll_command (-getinfo or getblockchaininfo)."
	case Failed:
		return failedHint(method, o.Output)
	default:
		return ""
	}
}

func failedHint(method, text string) string {
	lower := strings.ToLower(text)
	code := ""
	if m := rpcErrorCode.FindStringSubmatch(text); m != nil {
		code = m[1]
	}

	switch {
	case strings.Contains(lower, "could not connect to the server"):
		return "bitcoind isn't reachable. Is it running with server=1, and do -rpcport/-rpcconnect match?"
	case strings.Contains(lower, "incorrect rpcuser or rpcpassword"), strings.Contains(lower, "authorization failed"):
		return "RPC credentials were rejected. Check RPC_USER and RPC_PASSWORD against bitcoin.conf."
	case code == "-28" || strings.Contains(lower, "loading block index") || strings.Contains(lower, "verifying blocks"):
		return "bitcoind is still starting up. Try again in a moment."
	case code == "-18" || strings.Contains(lower, "no wallet is loaded") || strings.Contains(lower, "wallet does not exist or is not loaded"):
		return "No wallet loaded. Try: loadwallet <name> (or createwallet <name>)."
	case code == "-19" || strings.Contains(lower, "wallet file not specified"):
		return "Several wallets are loaded. Pass -rpcwallet=<name> via node.args."
	case code == "-13" || strings.Contains(lower, "walletpassphrase"):
		return "The wallet is locked. Unlock it with walletpassphrase first."
	case code == "-32601" || strings.Contains(lower, "method not found"):
		if suggestions := util.SuggestSimilar(method, KnownMethods, 3); len(suggestions) > 0 {
			return fmt.Sprintf("Unknown command '%s'. Did you mean %s?", method, strings.Join(suggestions, ", "))
		}
		return fmt.Sprintf("Unknown command '%s'. Run 'help' for the full list.", method)
	default:
		return ""
	}
}
