package blockchain

// FundMeABI is the interface of the FundMe contract: payable fund, owner-only
// withdraw, and the public getters.
const FundMeABI = `[
  {"type":"function","name":"fund","inputs":[],"outputs":[],"stateMutability":"payable"},
  {"type":"function","name":"withdraw","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"cheaperWithdraw","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"getOwner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
  {"type":"function","name":"getFunder","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
  {"type":"function","name":"getAddressToAmountFunded","inputs":[{"name":"fundingAddress","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"getPriceFeed","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
  {"type":"function","name":"getVersion","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"MINIMUM_USD","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"error","name":"FundMe__NotOwner","inputs":[]},
  {"type":"receive","stateMutability":"payable"},
  {"type":"fallback","stateMutability":"payable"}
]`
